// Package bindings loads binding declarations from YAML files and
// command-line flags.
package bindings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/credbind/internal/domain/binding"
)

//go:embed schema/bindings.schema.json
var schemaJSON []byte

var (
	compiled    *jsonschema.Schema
	compileErr  error
	compileOnce sync.Once
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("bindings.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("failed to add bindings schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("bindings.schema.json")
	})
	return compiled, compileErr
}

// Declaration is one entry of a bindings file.
type Declaration struct {
	Options    map[string]string `yaml:"options,omitempty"`
	Variable   string            `yaml:"variable"`
	Credential string            `yaml:"credential"`
	Type       string            `yaml:"type"`
}

type document struct {
	Bindings []Declaration `yaml:"bindings"`
}

// LoadFile reads, validates and converts a bindings file.
func LoadFile(path string) ([]binding.Binding, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open bindings directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	f, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open bindings file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("failed to read bindings file: %w", err)
	}
	out, err := Parse(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("bindings file %s: %w", path, err)
	}
	return out, nil
}

// Parse validates YAML against the bindings schema and converts it.
func Parse(data []byte) ([]binding.Binding, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode bindings: %w", err)
	}

	out := make([]binding.Binding, 0, len(doc.Bindings))
	for i, d := range doc.Bindings {
		b, err := binding.New(d.Variable, d.Credential, d.Type)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", i, err)
		}
		out = append(out, b.WithOptions(d.Options))
	}
	return out, nil
}

// Validate checks YAML against the embedded JSON schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse bindings YAML: %w", err)
	}
	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return fmt.Errorf("failed to parse bindings YAML: %w", err)
	}

	if err := s.Validate(instance); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return formatValidationError(verr)
		}
		return fmt.Errorf("bindings validation failed: %w", err)
	}
	return nil
}

func formatValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return fmt.Errorf("bindings validation failed: %s", err.Message)
	}
	return fmt.Errorf("bindings validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}
