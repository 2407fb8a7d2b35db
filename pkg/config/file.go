package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration, read from evolve.yaml or evolve.toml.
type File struct {
	Default       string            `yaml:"default,omitempty" toml:"default,omitempty" validate:"omitempty,mode"`
	ForceNative   bool              `yaml:"forceNative,omitempty" toml:"forceNative,omitempty"`
	InheritParent *bool             `yaml:"inheritParent,omitempty" toml:"inheritParent,omitempty"`
	Classes       map[string]string `yaml:"classes,omitempty" toml:"classes,omitempty" validate:"dive,keys,required,endkeys,variant"`
	Instances     map[string]string `yaml:"instances,omitempty" toml:"instances,omitempty" validate:"dive,keys,startswith=/,endkeys,variant"`
	Groups        [][]string        `yaml:"groups,omitempty" toml:"groups,omitempty" validate:"dive,min=2,dive,required"`
	Flags         Flags             `yaml:"flags,omitempty" toml:"flags,omitempty"`
	Renderer      RendererConfig    `yaml:"renderer,omitempty" toml:"renderer,omitempty"`
}

// RendererConfig describes where the embedded renderer connects.
type RendererConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// DefaultFileNames are searched, in order, by LoadOptional.
var DefaultFileNames = []string{"evolve.yaml", "evolve.yml", "evolve.toml"}

var fileValidate *validator.Validate

func init() {
	fileValidate = validator.New()
	_ = fileValidate.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		_, err := ParseMode(fl.Field().String())
		return err == nil
	})
	_ = fileValidate.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		_, err := ParseVariant(fl.Field().String())
		return err == nil
	})
}

// Validate checks field values. Unknown mode or variant names are rejected.
func (f *File) Validate() error {
	if err := fileValidate.Struct(f); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads and validates a configuration file. The format is chosen by
// extension: .toml for TOML, anything else for YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes configuration bytes. ext selects the format (".toml" or YAML).
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadOptional reads the first of DefaultFileNames found in dir. It returns
// an empty File and an empty path when none exists.
func LoadOptional(dir string) (*File, string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", err
		}
		f, err := Load(path)
		if err != nil {
			return nil, path, err
		}
		return f, path, nil
	}
	return &File{}, "", nil
}

// Apply replaces r's state with the file's settings in one step. Values
// already validated by Parse cannot fail here; an unparsed File is
// validated first and r is left untouched when that fails.
func (f *File) Apply(r *Registry) error {
	staged, err := f.stage()
	if err != nil {
		return err
	}
	r.Replace(staged)
	return nil
}

// stage builds a fresh registry holding the file's settings.
func (f *File) stage() (*Registry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	r := NewRegistry()
	if f.Default != "" {
		mode, _ := ParseMode(f.Default)
		r.SetDefault(mode)
	}
	r.SetForceNative(f.ForceNative)
	if f.InheritParent != nil {
		r.SetInheritParent(*f.InheritParent)
	}
	for _, group := range f.Groups {
		r.AddDependencyGroup(group...)
	}
	for class, name := range f.Classes {
		v, _ := ParseVariant(name)
		r.SetClassOverride(class, v)
	}
	for path, name := range f.Instances {
		v, _ := ParseVariant(name)
		r.SetInstanceOverride(path, v)
	}
	return r, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvDefault       = "EVOLVE_DEFAULT"
	EnvForceNative   = "EVOLVE_FORCE_NATIVE"
	EnvInheritParent = "EVOLVE_INHERIT_PARENT"
	EnvClassPrefix   = "EVOLVE_CLASS_"
)

// ApplyEnv layers environment overrides onto r. environ is in os.Environ
// form; pass nil to read the process environment. The overrides land in one
// step, and not at all when any of them is malformed.
func ApplyEnv(r *Registry, environ []string) error {
	staged := r.Clone()
	if err := applyEnv(staged, environ); err != nil {
		return err
	}
	r.Replace(staged)
	return nil
}

func applyEnv(r *Registry, environ []string) error {
	if environ == nil {
		environ = os.Environ()
	}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch {
		case key == EnvDefault:
			mode, err := ParseMode(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			r.SetDefault(mode)
		case key == EnvForceNative:
			force, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			r.SetForceNative(force)
		case key == EnvInheritParent:
			inherit, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			r.SetInheritParent(inherit)
		case strings.HasPrefix(key, EnvClassPrefix):
			class := strings.TrimPrefix(key, EnvClassPrefix)
			if class == "" {
				continue
			}
			v, err := ParseVariant(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			r.SetClassOverride(class, v)
		}
	}
	return nil
}
