package fixits

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// commentedKeys are written as comments instead of mapping entries.
var commentedKeys = map[string]bool{
	KeyFileLine: true,
}

// Encode renders a group as a standalone fixits document that
// clang-apply-replacements accepts.
func Encode(g Group) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, d := range g.Diagnostics {
		n := cloneNode(d.node)
		commentOutKeys(n)
		seq.Content = append(seq.Content, n)
	}
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: keyDiagnostics},
			seq,
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: keyMainSourceFile},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "", Style: yaml.SingleQuotedStyle},
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, errors.Wrapf(err, "encoding fixits for %s", g.Name)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "encoding fixits for %s", g.Name)
	}
	return buf.Bytes(), nil
}

// commentOutKeys removes commented keys from every mapping below n and puts a
// "# Key: value" line above the FileOffset key they belong to. If the mapping
// has no FileOffset the comment goes above the following key, or below the
// mapping when nothing follows. It reports whether anything was commented out.
func commentOutKeys(n *yaml.Node) bool {
	changed := false
	for _, c := range n.Content {
		if commentOutKeys(c) {
			changed = true
		}
	}
	if changed {
		// comments cannot live inside flow collections
		n.Style &^= yaml.FlowStyle
	}
	if n.Kind != yaml.MappingNode {
		return changed
	}

	var kept []*yaml.Node
	var pending []string
	var following *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if commentedKeys[k.Value] && v.Kind == yaml.ScalarNode {
			pending = append(pending, fmt.Sprintf("# %s: %s", k.Value, v.Value))
			continue
		}
		kept = append(kept, k, v)
		if len(pending) > 0 && following == nil {
			following = k
		}
	}
	if len(pending) == 0 {
		return changed
	}
	n.Content = kept
	n.Style &^= yaml.FlowStyle

	if k, _ := lookup(n, keyFileOffset); k != nil {
		k.HeadComment = appendComment(k.HeadComment, pending)
	} else if following != nil {
		following.HeadComment = appendComment(following.HeadComment, pending)
	} else {
		n.FootComment = appendComment(n.FootComment, pending)
	}
	return true
}

// appendComment adds lines to a node comment, replacing commented-key lines
// that are already there.
func appendComment(existing string, lines []string) string {
	var kept []string
	if existing != "" {
		for _, l := range strings.Split(existing, "\n") {
			if !isKeyComment(l) {
				kept = append(kept, l)
			}
		}
	}
	return strings.Join(append(kept, lines...), "\n")
}

func isKeyComment(line string) bool {
	line = strings.TrimSpace(line)
	for k := range commentedKeys {
		if strings.HasPrefix(line, "# "+k+":") {
			return true
		}
	}
	return false
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}
