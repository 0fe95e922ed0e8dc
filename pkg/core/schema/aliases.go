// Package schema resolves logical field names to the source keys used by the
// different report layouts.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed aliases.yaml
var defaultAliases []byte

// Cleanup switches narrative text normalisation steps.
type Cleanup struct {
	UnicodeNFC            bool
	StripHTML             bool
	StripMarkdownEmphasis bool
}

// Aliases is the field-alias table plus the few projection settings that
// travel with it.
type Aliases struct {
	fields       map[string][]string
	optional     map[string]bool
	NotAvailable string
	Cleanup      Cleanup
}

// aliasFile is the on-disk format. Pointer fields distinguish "unset" from
// "false" when an override file is merged onto the defaults.
type aliasFile struct {
	NotAvailable *string             `yaml:"not_available"`
	Optional     []string            `yaml:"optional"`
	Aliases      map[string][]string `yaml:"aliases"`
	TextCleanup  struct {
		UnicodeNFC            *bool `yaml:"unicode_nfc"`
		StripHTML             *bool `yaml:"strip_html"`
		StripMarkdownEmphasis *bool `yaml:"strip_markdown_emphasis"`
	} `yaml:"text_cleanup"`
}

// Default returns the embedded alias table.
func Default() *Aliases {
	a, err := Parse(defaultAliases)
	if err != nil {
		panic(fmt.Sprintf("embedded aliases.yaml is invalid: %v", err))
	}
	return a
}

// Load returns the embedded table, with the file at path merged on top when
// path is not empty.
func Load(path string) (*Aliases, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file %s: %w", path, err)
	}
	if err := base.merge(data); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}
	fmt.Printf("[schema.Load] Merged aliases from %s\n", path)
	return base, nil
}

// Parse builds a table from YAML alone.
func Parse(data []byte) (*Aliases, error) {
	a := &Aliases{
		fields:   make(map[string][]string),
		optional: make(map[string]bool),
	}
	if err := a.merge(data); err != nil {
		return nil, err
	}
	if a.NotAvailable == "" {
		a.NotAvailable = "N/A"
	}
	return a, nil
}

func (a *Aliases) merge(data []byte) error {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	for name, keys := range f.Aliases {
		if len(keys) == 0 {
			return fmt.Errorf("alias %q has no source keys", name)
		}
		a.fields[name] = append([]string(nil), keys...)
	}
	for _, name := range f.Optional {
		a.optional[name] = true
	}
	if f.NotAvailable != nil {
		a.NotAvailable = *f.NotAvailable
	}
	if v := f.TextCleanup.UnicodeNFC; v != nil {
		a.Cleanup.UnicodeNFC = *v
	}
	if v := f.TextCleanup.StripHTML; v != nil {
		a.Cleanup.StripHTML = *v
	}
	if v := f.TextCleanup.StripMarkdownEmphasis; v != nil {
		a.Cleanup.StripMarkdownEmphasis = *v
	}
	return nil
}

// Keys returns the source keys accepted for a logical name, in lookup order.
func (a *Aliases) Keys(logical string) []string {
	if keys, ok := a.fields[logical]; ok {
		return keys
	}
	if i := strings.LastIndex(logical, "."); i >= 0 {
		return []string{logical[i+1:]}
	}
	return []string{logical}
}

// Optional reports whether a logical name may be absent from the source.
func (a *Aliases) Optional(logical string) bool {
	return a.optional[logical]
}
