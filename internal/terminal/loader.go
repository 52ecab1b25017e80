package terminal

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// Loader handles loading and parsing of a terminal reference file.
// An empty path loads the built-in table.
type Loader struct {
	filePath string
}

// NewLoader creates a new terminal table loader.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the terminal file.
func (l *Loader) Load() (File, error) {
	if l.filePath == "" {
		return Parse(defaultTable)
	}
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read terminal file: %w", err)
	}
	return Parse(data)
}

// Parse decodes terminal YAML. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("failed to parse terminal yaml: %w", err)
	}
	return f, nil
}
