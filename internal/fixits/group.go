package fixits

type Group struct {
	Name        string
	Diagnostics []*Diagnostic
}

// GroupByName buckets diagnostics by check name. Groups appear in the order
// their first diagnostic appears, and each keeps its diagnostics in input order.
func GroupByName(diags []*Diagnostic) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, d := range diags {
		i, ok := index[d.Name]
		if !ok {
			i = len(groups)
			index[d.Name] = i
			groups = append(groups, Group{Name: d.Name})
		}
		groups[i].Diagnostics = append(groups[i].Diagnostics, d)
	}
	return groups
}
