// Package manifest declares the protected routes of an application and
// syncs them into the permission store.
//
// A manifest is a YAML document:
//
//	exclude: [admin, static, media]
//	routes:
//	  - pattern: employees/<int:id>/edit
//	    name: employee_edit
//	  - pattern: login
//	    public: true
//
// Routes marked public and routes whose first segment is an excluded
// namespace are never registered.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultExclude lists the namespaces skipped when a manifest names none.
var DefaultExclude = []string{"admin", "static", "media"}

// ErrInvalid is returned for manifests that fail validation.
var ErrInvalid = errors.New("routeguard: invalid manifest")

// Manifest is the declared set of application routes.
type Manifest struct {
	// Exclude lists first path segments whose routes are skipped. Nil
	// means DefaultExclude; an empty list excludes nothing.
	Exclude []string `yaml:"exclude" json:"exclude" validate:"omitempty,dive,required"`
	Routes  []Route  `yaml:"routes" json:"routes" validate:"dive"`
}

// Route is one declared path template.
type Route struct {
	Pattern     string `yaml:"pattern" json:"pattern" validate:"required"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty" validate:"omitempty,max=255"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Public      bool   `yaml:"public,omitempty" json:"public,omitempty"`
}

var validate = validator.New()

// Parse decodes and validates a YAML manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Validate checks the structural rules of the manifest.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (m *Manifest) excluded() map[string]struct{} {
	list := m.Exclude
	if list == nil {
		list = DefaultExclude
	}
	set := make(map[string]struct{}, len(list))
	for _, ns := range list {
		set[ns] = struct{}{}
	}
	return set
}
