package compiler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AliasTable maps normalized variant spellings to a normalized canonical label.
//
// A table is built once and passed into Compile; it is not mutated during a
// compilation batch. Resolution is best-effort and never fails.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable creates an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{aliases: make(map[string]string)}
}

// DefaultAliases returns a table pre-populated with memory-system synonyms.
func DefaultAliases() *AliasTable {
	t := NewAliasTable()
	t.Insert("long_term_memory", "long-term-memory")
	t.Insert("LTM", "long-term-memory")
	t.Insert("short_term_memory", "short-term-memory")
	t.Insert("STM", "short-term-memory")
	t.Insert("working_memory", "working-memory")
	t.Insert("WM", "working-memory")
	t.Insert("semantic_memory", "semantic-memory")
	t.Insert("episodic_memory", "episodic-memory")
	return t
}

// Insert registers alias → canonical. Both sides are normalized first.
func (t *AliasTable) Insert(alias, canonical string) {
	t.aliases[NormalizeLabel(alias)] = NormalizeLabel(canonical)
}

// Resolve normalizes label and maps it through the table. Unknown labels
// come back in normalized form.
func (t *AliasTable) Resolve(label string) string {
	normalized := NormalizeLabel(label)
	if canonical, ok := t.aliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Len returns the number of registered aliases.
func (t *AliasTable) Len() int {
	return len(t.aliases)
}

// Clone returns an independent copy of the table.
func (t *AliasTable) Clone() *AliasTable {
	out := &AliasTable{aliases: make(map[string]string, len(t.aliases))}
	for k, v := range t.aliases {
		out.aliases[k] = v
	}
	return out
}

// aliasFile is the YAML layout accepted by LoadAliasFile:
//
//	aliases:
//	  LTM: long-term-memory
//	  k8s: kubernetes
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliasFile reads aliases from a YAML file and layers them over base.
// base is not modified; a nil base starts from DefaultAliases.
func LoadAliasFile(path string, base *AliasTable) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliases(data, base)
}

// ParseAliases decodes YAML alias data and layers it over base.
func ParseAliases(data []byte, base *AliasTable) (*AliasTable, error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}

	if base == nil {
		base = DefaultAliases()
	}
	t := base.Clone()
	for alias, canonical := range f.Aliases {
		t.Insert(alias, canonical)
	}
	return t, nil
}
