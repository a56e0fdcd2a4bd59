package vesper

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// FileConfig is a YAML-serializable mirror of Config, for hosts that keep
// interpreter tuning in a config file alongside other service config.
type FileConfig struct {
	EnableOSAccess bool    `yaml:"enable_os_access"`
	MaxAlloc       int     `yaml:"max_alloc"`
	MaxRecursion   int     `yaml:"max_recursion"`
	GCRunFactor    float64 `yaml:"gc_run_factor"`
	ImportPath     string  `yaml:"import_path"`
	Argv           []string `yaml:"argv"`
}

// LoadConfig reads a YAML document at path into a FileConfig, applying
// Vesper's documented defaults for any field the document omits.
func LoadConfig(path string) (FileConfig, error) {
	fc := FileConfig{
		MaxAlloc:     1_000_000,
		MaxRecursion: 50,
		GCRunFactor:  2.0,
		ImportPath:   ".",
		Argv:         []string{""},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("vesper: load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("vesper: parse config %s: %w", path, err)
	}
	return fc, nil
}

// Options converts a FileConfig into the Option list New expects.
func (fc FileConfig) Options() []Option {
	return []Option{
		WithOSAccess(fc.EnableOSAccess),
		WithMaxAlloc(fc.MaxAlloc),
		WithMaxRecursion(fc.MaxRecursion),
		WithGCRunFactor(fc.GCRunFactor),
		WithImportPath(fc.ImportPath),
		WithArgv(fc.Argv),
	}
}
