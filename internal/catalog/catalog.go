// Package catalog loads the set of supported languages from YAML.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reelearn/reelearn/pkg/fragment"
)

// Language is one supported language.
type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	// Punkt is the punkt training file for the language, relative to the
	// punkt data directory. Empty uses the universal tokenizer.
	Punkt string `yaml:"punkt"`
}

// Catalog is an immutable snapshot of the language configuration.
type Catalog struct {
	Default   string     `yaml:"default"`
	Languages []Language `yaml:"languages"`
}

// FromList builds a catalog from a default code and a list of codes.
func FromList(def string, codes []string) *Catalog {
	c := &Catalog{Default: strings.ToLower(strings.TrimSpace(def))}
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		c.Languages = append(c.Languages, Language{Code: code})
	}
	return c
}

// Validate checks that codes are unique and the default is one of them.
func (c *Catalog) Validate() error {
	if c.Default == "" {
		return errors.New("catalog: default language required")
	}
	seen := make(map[string]bool, len(c.Languages))
	for i, l := range c.Languages {
		if l.Code == "" {
			return fmt.Errorf("catalog: language %d has no code", i)
		}
		if seen[l.Code] {
			return fmt.Errorf("catalog: duplicate language %q", l.Code)
		}
		seen[l.Code] = true
	}
	if !seen[c.Default] {
		return fmt.Errorf("catalog: default language %q is not in the list", c.Default)
	}
	return nil
}

// Fallback returns the default language.
func (c *Catalog) Fallback() fragment.Language {
	return fragment.Language(c.Default)
}

// Supported returns the language codes in catalog order.
func (c *Catalog) Supported() []fragment.Language {
	out := make([]fragment.Language, 0, len(c.Languages))
	for _, l := range c.Languages {
		out = append(out, fragment.Language(l.Code))
	}
	return out
}

// PunktFiles maps languages to their punkt training files.
func (c *Catalog) PunktFiles() map[fragment.Language]string {
	out := make(map[fragment.Language]string)
	for _, l := range c.Languages {
		if l.Punkt != "" {
			out[fragment.Language(l.Code)] = l.Punkt
		}
	}
	return out
}
