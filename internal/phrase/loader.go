package phrase

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// tableFile is the top-level structure of a phrase-table YAML file.
//
// Example:
//
//	phrases:
//	  - phrase: "bismillah"
//	    surah: 1
//	    ayah: 1
//	    arabic_text: "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ"
type tableFile struct {
	Phrases []VersePhrase `yaml:"phrases"`
}

//go:embed default.yaml
var defaultTableYAML string

// LoadFile reads and validates a phrase-table YAML file from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phrase: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("phrase: parse %q: %w", path, err)
	}
	return t, nil
}

// LoadFromReader parses phrase-table YAML from r.
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadFromReader(r io.Reader) (*Table, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("phrase: decode yaml: %w", err)
	}
	return NewTable(tf.Phrases)
}

// Default returns the embedded phrase table that ships with the binary.
// Panics if the embedded data is invalid, which would be a build defect.
func Default() *Table {
	t, err := LoadFromReader(strings.NewReader(defaultTableYAML))
	if err != nil {
		panic("phrase: embedded default table is invalid: " + err.Error())
	}
	return t
}
