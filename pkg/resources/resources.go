package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package resources loads the resource types (backend collections) the operator works with.

// Resource is one collection served at /{id}.
type Resource struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	// Trash reports whether records of this type are soft deleted.
	Trash *bool `json:"trash" yaml:"trash"`
}

// TrashEnabled returns the trash flag defaulting to true.
func (r Resource) TrashEnabled() bool {
	if r.Trash == nil {
		return true
	}
	return *r.Trash
}

type registryFile struct {
	Resources []Resource `json:"resources" yaml:"resources"`
}

// Registry is an immutable, validated set of resources.
type Registry struct {
	resources []Resource
	idx       map[string]Resource
}

// Default returns the collections the backend ships with.
func Default() *Registry {
	reg, _ := NewRegistry([]Resource{
		{ID: "partner", Label: "Partner"},
		{ID: "clienti", Label: "Clienti"},
	})
	return reg
}

// NewRegistry validates resources and builds a registry.
func NewRegistry(list []Resource) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("resources list is empty")
	}
	reg := &Registry{
		resources: make([]Resource, len(list)),
		idx:       make(map[string]Resource, len(list)),
	}
	for i := range list {
		r := sanitizeResource(list[i])
		if err := validateResource(r); err != nil {
			return nil, fmt.Errorf("resources[%d]: %w", i, err)
		}
		if _, exists := reg.idx[r.ID]; exists {
			return nil, fmt.Errorf("duplicate resource id %q", r.ID)
		}
		reg.resources[i] = r
		reg.idx[r.ID] = r
	}
	return reg, nil
}

// LoadRegistry loads resources from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("resources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open resources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read resources file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Resources) == 0 {
		return nil, errors.New("resources file contains no resources entries")
	}
	return NewRegistry(parsed.Resources)
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("resources file format not recognized (expected YAML or JSON)")
}

func sanitizeResource(r Resource) Resource {
	r.ID = strings.ToLower(strings.TrimSpace(r.ID))
	r.Label = strings.TrimSpace(r.Label)
	if r.Label == "" {
		r.Label = r.ID
	}
	return r
}

func validateResource(r Resource) error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if strings.ContainsAny(r.ID, "/?# ") {
		return fmt.Errorf("id %q must be a single path segment", r.ID)
	}
	return nil
}

// ByID returns the resource for id.
func (r *Registry) ByID(id string) (Resource, bool) {
	if r == nil {
		return Resource{}, false
	}
	res, ok := r.idx[strings.ToLower(strings.TrimSpace(id))]
	return res, ok
}

// All returns a copy of the configured resources.
func (r *Registry) All() []Resource {
	if r == nil {
		return nil
	}
	out := make([]Resource, len(r.resources))
	copy(out, r.resources)
	return out
}

// IDs lists the resource ids in file order.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, 0, len(all))
	for _, res := range all {
		ids = append(ids, res.ID)
	}
	return ids
}
