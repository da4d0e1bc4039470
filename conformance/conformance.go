// Package conformance runs YAML-described cases against the parser,
// serializer and navigator, so the same fixtures can be shared with
// implementations in other languages.
package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Case is one conformance fixture. Input is UDM Language text; the
// remaining fields describe what must hold after parsing it. A case with
// Error set expects parsing to fail with a message containing that
// substring, and carries no other checks.
type Case struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Input       string   `yaml:"input"`
	Error       string   `yaml:"error,omitempty"`
	Serialized  string   `yaml:"serialized,omitempty"`
	Paths       []string `yaml:"paths,omitempty"`
	Checks      []Check  `yaml:"checks,omitempty"`
}

// Check asserts one path resolution: either the path is absent, or it
// resolves to a scalar whose string form equals Scalar.
type Check struct {
	Path   string `yaml:"path"`
	Scalar string `yaml:"scalar,omitempty"`
	Absent bool   `yaml:"absent,omitempty"`
}

// Load reads a single case file.
func Load(path string) (Case, error) {
	var c Case
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("conformance: %s: %w", filepath.Base(path), err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := c.validate(); err != nil {
		return c, fmt.Errorf("conformance: %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// LoadDir reads every .yaml case in a directory, sorted by file name.
func LoadDir(dir string) ([]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cases := make([]Case, 0, len(names))
	for _, name := range names {
		c, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func (c Case) validate() error {
	if c.Input == "" {
		return fmt.Errorf("case %q has no input", c.Name)
	}
	if c.Error != "" && (c.Serialized != "" || len(c.Paths) > 0 || len(c.Checks) > 0) {
		return fmt.Errorf("case %q expects a parse error but carries post-parse checks", c.Name)
	}
	for i, chk := range c.Checks {
		if chk.Path == "" {
			return fmt.Errorf("case %q: check %d has no path", c.Name, i)
		}
		if chk.Absent && chk.Scalar != "" {
			return fmt.Errorf("case %q: check %d is both absent and scalar", c.Name, i)
		}
	}
	return nil
}
