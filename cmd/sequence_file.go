// File: cmd/sequence_file.go
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// readSequenceFile returns the sequence in path as JSON text. Files ending in
// .yaml or .yml are decoded as YAML first; everything else is passed through
// untouched so the parser reports JSON syntax errors itself.
func readSequenceFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		return data, nil
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var tree interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := jsonAPI.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("YAML sequence cannot be expressed as JSON: %w", err)
	}
	return out, nil
}
