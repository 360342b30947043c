// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

// Package manifest parses and checks the extension's plugin.json and the
// layout of a built plugin package.
package manifest

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// FileName is the manifest file at the package root.
const FileName = "plugin.json"

// Manifest represents a plugin.json file.
type Manifest struct {
	Name        string   `json:"name" yaml:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	CommonName  string   `json:"common_name" yaml:"common_name" jsonschema:"minLength=1"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
	Include     []string `json:"include,omitempty" yaml:"include,omitempty"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// Parse parses and validates plugin.json data. JSON is read through the
// YAML decoder, which accepts it as a subset.
func Parse(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.In("manifest").Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.In("manifest").Wrapf(err, "invalid manifest")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	errb := oops.In("manifest").With("name", m.Name)

	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return errb.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return errb.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.CommonName == "" {
		return errb.Errorf("common_name is required")
	}

	if m.Version != "" {
		if _, err := semver.StrictNewVersion(m.Version); err != nil {
			return errb.With("version", m.Version).Wrapf(err, "version must be a semantic version")
		}
	}

	for _, inc := range m.Include {
		if inc == "" {
			return errb.Errorf("include entries must not be empty")
		}
	}

	return nil
}

// SemVer returns the parsed version, or nil when none is declared.
func (m *Manifest) SemVer() *semver.Version {
	if m.Version == "" {
		return nil
	}
	v, err := semver.StrictNewVersion(m.Version)
	if err != nil {
		return nil
	}
	return v
}
