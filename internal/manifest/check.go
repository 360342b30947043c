// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// Entry is one expected path in a plugin package.
type Entry struct {
	Path     string
	Dir      bool
	Required bool
	Exists   bool
}

// Layout lists the paths a plugin package is expected to contain.
// .millennium holds build output and is only present after a build.
var Layout = []Entry{
	{Path: FileName, Required: true},
	{Path: "backend", Dir: true, Required: true},
	{Path: "frontend", Dir: true, Required: true},
	{Path: "webkit", Dir: true},
	{Path: ".millennium", Dir: true},
}

// Report is the result of checking a plugin package directory.
type Report struct {
	Dir      string
	Entries  []Entry
	Manifest *Manifest
	// ManifestErr is set when plugin.json exists but is invalid.
	ManifestErr error
}

// OK reports whether every required path exists and the manifest is valid.
func (r *Report) OK() bool {
	if r.ManifestErr != nil {
		return false
	}
	for _, e := range r.Entries {
		if e.Required && !e.Exists {
			return false
		}
	}
	return true
}

// Missing returns the required paths that do not exist.
func (r *Report) Missing() []string {
	var out []string
	for _, e := range r.Entries {
		if e.Required && !e.Exists {
			out = append(out, e.Path)
		}
	}
	return out
}

// Check inspects dir against Layout and validates its plugin.json.
// It returns an error only when dir itself cannot be read.
func Check(dir string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, oops.In("manifest").With("dir", dir).Wrapf(err, "stat package dir")
	}
	if !info.IsDir() {
		return nil, oops.In("manifest").With("dir", dir).Errorf("%s is not a directory", dir)
	}

	report := &Report{Dir: dir}
	for _, want := range Layout {
		got := want
		fi, err := os.Stat(filepath.Join(dir, want.Path))
		switch {
		case err == nil:
			got.Exists = fi.IsDir() == want.Dir
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, oops.In("manifest").With("path", want.Path).Wrapf(err, "stat package entry")
		}
		report.Entries = append(report.Entries, got)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case err == nil:
		if err := ValidateSchema(data); err != nil {
			report.ManifestErr = err
			break
		}
		report.Manifest, report.ManifestErr = Parse(data)
	case errors.Is(err, fs.ErrNotExist):
	default:
		report.ManifestErr = oops.In("manifest").Wrapf(err, "read %s", FileName)
	}

	return report, nil
}
