// Package credstore provides a file-backed credential store.
// Credential material is resolved from inline values, environment variables
// or files at lookup time and handed to the caller, which owns and zeroes it.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/credbind/internal/domain/credentials"
)

// ValueSource says where a secret field comes from. Exactly one of Value,
// Env or File should be set; Value is for local development only.
type ValueSource struct {
	Value string `yaml:"value,omitempty"`
	Env   string `yaml:"env,omitempty"`
	File  string `yaml:"file,omitempty"`
}

func (v *ValueSource) count() int {
	n := 0
	for _, s := range []string{v.Value, v.Env, v.File} {
		if s != "" {
			n++
		}
	}
	return n
}

// Definition is one credential entry of the credentials file.
type Definition struct {
	Password       *ValueSource `yaml:"password,omitempty"`
	Secret         *ValueSource `yaml:"secret,omitempty"`
	Content        *ValueSource `yaml:"content,omitempty"`
	ID             string       `yaml:"id"`
	Kind           string       `yaml:"kind"`
	Description    string       `yaml:"description,omitempty"`
	Username       string       `yaml:"username,omitempty"`
	FileName       string       `yaml:"file_name,omitempty"`
	Consumers      []string     `yaml:"consumers,omitempty"`
	UsernameSecret bool         `yaml:"username_secret,omitempty"`
}

type document struct {
	Credentials []Definition `yaml:"credentials"`
}

type entry struct {
	def  Definition
	kind credentials.Capability
}

// FileSource serves credentials defined in a YAML file. Definitions are
// loaded once; secret material is read on every lookup so no secret is
// cached between scopes.
type FileSource struct {
	entries map[string]entry
	baseDir string
}

// LoadFile reads and validates a credentials file.
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	src, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return src, nil
}

// Parse builds a FileSource from YAML. Relative file sources resolve against baseDir.
func Parse(data []byte, baseDir string) (*FileSource, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return NewFileSource(doc.Credentials, baseDir)
}

// NewFileSource validates definitions and indexes them by id.
func NewFileSource(defs []Definition, baseDir string) (*FileSource, error) {
	src := &FileSource{
		entries: make(map[string]entry, len(defs)),
		baseDir: baseDir,
	}
	for i, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("credential #%d: id is required", i)
		}
		if _, dup := src.entries[def.ID]; dup {
			return nil, fmt.Errorf("credential %q: duplicate id", def.ID)
		}
		kind, ok := credentials.ParseCapability(def.Kind)
		if !ok {
			return nil, fmt.Errorf("credential %q: unknown kind %q", def.ID, def.Kind)
		}
		for _, pattern := range def.Consumers {
			if _, err := path.Match(pattern, ""); err != nil {
				return nil, fmt.Errorf("credential %q: consumer pattern %q: %w", def.ID, pattern, err)
			}
		}
		for name, vs := range map[string]*ValueSource{"password": def.Password, "secret": def.Secret, "content": def.Content} {
			if vs != nil && vs.count() > 1 {
				return nil, fmt.Errorf("credential %q: %s must set only one of value, env or file", def.ID, name)
			}
		}
		src.entries[def.ID] = entry{def: def, kind: kind}
	}
	return src, nil
}

// Len returns the number of defined credentials.
func (s *FileSource) Len() int {
	return len(s.entries)
}

// Get resolves the credential id for consumer.
func (s *FileSource) Get(ctx context.Context, id, consumer string, required credentials.Capability) (*credentials.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", credentials.ErrNotFound, id)
	}
	if !allowed(e.def.Consumers, consumer) {
		return nil, fmt.Errorf("%w: %s may not use %s", credentials.ErrAccessDenied, consumer, id)
	}
	if e.kind != required {
		return nil, fmt.Errorf("%w: %s is %s, need %s", credentials.ErrCapabilityMismatch, id, e.kind, required)
	}

	cred := &credentials.Credential{
		ID:             id,
		Kind:           e.kind,
		Description:    e.def.Description,
		Username:       e.def.Username,
		UsernameSecret: e.def.UsernameSecret,
		FileName:       e.def.FileName,
	}

	var err error
	if cred.Password, err = s.resolve(id, "password", e.def.Password, true); err != nil {
		return nil, err
	}
	if cred.Secret, err = s.resolve(id, "secret", e.def.Secret, true); err != nil {
		cred.Zero()
		return nil, err
	}
	if cred.Content, err = s.resolve(id, "content", e.def.Content, false); err != nil {
		cred.Zero()
		return nil, err
	}
	return cred, nil
}

func allowed(patterns []string, consumer string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, consumer); ok {
			return true
		}
	}
	return false
}

// resolve reads one secret field. Missing material yields a nil secret so the
// transform can report the credential as incomplete.
func (s *FileSource) resolve(id, field string, vs *ValueSource, trim bool) (*credentials.Secret, error) {
	if vs == nil {
		return nil, nil
	}

	switch {
	case vs.Value != "":
		return credentials.NewSecret(vs.Value), nil

	case vs.Env != "":
		value, ok := os.LookupEnv(vs.Env)
		if !ok || value == "" {
			return nil, nil
		}
		return credentials.NewSecret(value), nil

	case vs.File != "":
		data, err := s.readFile(vs.File)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("credential %q: %s: %w", id, field, err)
		}
		defer clear(data)
		value := string(data)
		if trim {
			value = strings.TrimSpace(value)
		}
		return credentials.NewSecret(value), nil
	}
	return nil, nil
}

// readFile opens the file through an os.Root on its directory so the name
// cannot escape it.
func (s *FileSource) readFile(name string) ([]byte, error) {
	if !filepath.IsAbs(name) && s.baseDir != "" {
		name = filepath.Join(s.baseDir, name)
	}
	dir, base := filepath.Dir(name), filepath.Base(name)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	f, err := root.Open(base)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", name, err)
	}
	return data, nil
}
