package library

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

//go:embed freetype.yaml
var freetypeYAML []byte

// FreeType returns the embedded FreeType descriptor.
func FreeType() (*Descriptor, error) {
	return Parse(freetypeYAML)
}

// LoadFile reads and parses a descriptor from disk.
func LoadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", path, err)
	}
	return d, nil
}

// Parse validates data against the schema and decodes it.
func Parse(data []byte) (*Descriptor, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid library descriptor: %s", result.Summary())
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding library descriptor: %w", err)
	}
	if check := d.Check(); !check.Valid {
		return nil, fmt.Errorf("invalid library descriptor: %s", check.Summary())
	}
	if _, err := ParseVersion(d.Version); err != nil {
		return nil, err
	}
	if _, err := d.DownloadURL(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseVersion parses a library version leniently ("2.7" is 2.7.0).
func ParseVersion(v string) (*semver.Version, error) {
	sv, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing library version %q: %w", v, err)
	}
	return sv, nil
}

// WithVersion returns a copy of d pinned to another upstream version.
// The checksum is dropped since it belongs to the old archive.
func (d *Descriptor) WithVersion(v string) (*Descriptor, error) {
	if _, err := ParseVersion(v); err != nil {
		return nil, err
	}
	c := *d
	if c.Version != v {
		c.SHA256 = ""
	}
	c.Version = v
	return &c, nil
}

// DownloadURL renders URLTemplate for the pinned version.
func (d *Descriptor) DownloadURL() (string, error) {
	tmpl, err := template.New(d.Name).Option("missingkey=error").Parse(d.URLTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing url template %q: %w", d.URLTemplate, err)
	}
	var b strings.Builder
	data := struct {
		Name    string
		Version string
	}{d.Name, d.Version}
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering url template %q: %w", d.URLTemplate, err)
	}
	return b.String(), nil
}
