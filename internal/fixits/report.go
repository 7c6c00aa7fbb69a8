// Package fixits splits clang-tidy exported fixes into one document per
// diagnostic check.
package fixits

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	keyDiagnostics       = "Diagnostics"
	keyDiagnosticName    = "DiagnosticName"
	keyDiagnosticMessage = "DiagnosticMessage"
	keyNotes             = "Notes"
	keyFilePath          = "FilePath"
	keyFileOffset        = "FileOffset"
	keyBuildDirectory    = "BuildDirectory"
	keyMainSourceFile    = "MainSourceFile"

	// KeyFileLine is added to every message with a file path. clang-apply-replacements
	// rejects unknown keys, so it is only ever written as a comment.
	KeyFileLine = "FileLine"
)

// Report is a loaded clang-tidy export. The typed fields are views onto the
// underlying YAML nodes, which keep every key the tool does not know about.
type Report struct {
	Path           string
	MainSourceFile string
	Diagnostics    []*Diagnostic
}

type Diagnostic struct {
	Name           string
	BuildDirectory string
	Message        *Message
	Notes          []*Message

	node *yaml.Node
}

type Message struct {
	FilePath   string
	FileOffset int64
	FileLine   *int

	node *yaml.Node
}

func Load(fs afero.Fs, path string) (*Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixits from %s", path)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing fixits from %s", path)
	}
	r.Path = path
	return r, nil
}

func Parse(data []byte) (*Report, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: top level is not a mapping", root.Line)
	}

	r := &Report{}
	if _, v := lookup(root, keyMainSourceFile); v != nil {
		if err := v.Decode(&r.MainSourceFile); err != nil {
			return nil, errors.Wrap(err, keyMainSourceFile)
		}
	}

	_, diags := lookup(root, keyDiagnostics)
	if diags == nil {
		return nil, errors.Errorf("missing %s", keyDiagnostics)
	}
	if diags.Kind == yaml.ScalarNode && diags.ShortTag() == "!!null" {
		return r, nil
	}
	if diags.Kind != yaml.SequenceNode {
		return nil, errors.Errorf("line %d: %s is not a sequence", diags.Line, keyDiagnostics)
	}
	for _, n := range diags.Content {
		d, err := parseDiagnostic(n)
		if err != nil {
			return nil, err
		}
		r.Diagnostics = append(r.Diagnostics, d)
	}
	return r, nil
}

func parseDiagnostic(n *yaml.Node) (*Diagnostic, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: diagnostic is not a mapping", n.Line)
	}
	d := &Diagnostic{node: n}

	_, name := lookup(n, keyDiagnosticName)
	if name == nil {
		return nil, errors.Errorf("line %d: diagnostic without %s", n.Line, keyDiagnosticName)
	}
	if err := name.Decode(&d.Name); err != nil {
		return nil, errors.Wrapf(err, "line %d: %s", name.Line, keyDiagnosticName)
	}
	if _, v := lookup(n, keyBuildDirectory); v != nil {
		if err := v.Decode(&d.BuildDirectory); err != nil {
			return nil, errors.Wrapf(err, "line %d: %s", v.Line, keyBuildDirectory)
		}
	}

	_, msg := lookup(n, keyDiagnosticMessage)
	if msg == nil {
		return nil, errors.Errorf("line %d: diagnostic %s without %s", n.Line, d.Name, keyDiagnosticMessage)
	}
	m, err := parseMessage(msg)
	if err != nil {
		return nil, err
	}
	d.Message = m

	if _, notes := lookup(n, keyNotes); notes != nil && notes.Kind == yaml.SequenceNode {
		for _, nn := range notes.Content {
			note, err := parseMessage(nn)
			if err != nil {
				return nil, err
			}
			d.Notes = append(d.Notes, note)
		}
	}
	return d, nil
}

func parseMessage(n *yaml.Node) (*Message, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: message is not a mapping", n.Line)
	}
	m := &Message{node: n}
	if _, v := lookup(n, keyFilePath); v != nil {
		if err := v.Decode(&m.FilePath); err != nil {
			return nil, errors.Wrapf(err, "line %d: %s", v.Line, keyFilePath)
		}
	}
	_, off := lookup(n, keyFileOffset)
	if off == nil {
		if m.FilePath != "" {
			return nil, errors.Errorf("line %d: message for %s without %s", n.Line, m.FilePath, keyFileOffset)
		}
		return m, nil
	}
	if err := off.Decode(&m.FileOffset); err != nil {
		return nil, errors.Wrapf(err, "line %d: %s", off.Line, keyFileOffset)
	}
	if _, v := lookup(n, KeyFileLine); v != nil {
		var line int
		if err := v.Decode(&line); err == nil {
			m.FileLine = &line
		}
	}
	return m, nil
}

// lookup returns the key and value nodes of key in mapping n.
func lookup(n *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i], n.Content[i+1]
		}
	}
	return nil, nil
}
