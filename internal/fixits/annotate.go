package fixits

import (
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Annotate sets FileLine on the primary message and every note of each
// diagnostic. Messages with an empty FilePath are left alone.
func Annotate(r *Report, idx *LineIndex) error {
	for _, d := range r.Diagnostics {
		if err := annotateMessage(d.Message, d.BuildDirectory, idx); err != nil {
			return err
		}
		for _, n := range d.Notes {
			if err := annotateMessage(n, d.BuildDirectory, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

func annotateMessage(m *Message, buildDir string, idx *LineIndex) error {
	if m == nil || m.FilePath == "" {
		return nil
	}
	path := m.FilePath
	if !filepath.IsAbs(path) && buildDir != "" {
		path = filepath.Join(buildDir, path)
	}
	line, err := idx.Line(path, m.FileOffset)
	if err != nil {
		return err
	}
	m.setFileLine(line)
	return nil
}

func (m *Message) setFileLine(line int) {
	m.FileLine = &line
	value := strconv.Itoa(line)
	if _, v := lookup(m.node, KeyFileLine); v != nil {
		v.Kind, v.Tag, v.Value, v.Style = yaml.ScalarNode, "!!int", value, 0
		return
	}
	m.node.Content = append(m.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: KeyFileLine},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: value},
	)
}
