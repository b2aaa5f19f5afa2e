package catalogfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Loader reads a catalog seed file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the catalog file. ${VAR} references are replaced
// by the environment before parsing.
func (l *Loader) Load() (CatalogConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return CatalogConfig{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(expandEnv(data))
}

// Parse decodes catalog YAML. Unknown fields are rejected so typos in a
// seed file surface instead of silently dropping data.
func Parse(data []byte) (CatalogConfig, error) {
	var config CatalogConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return CatalogConfig{}, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}
	return config, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with its value. Unset variables become empty.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
