// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

// Command gen-schema writes the plugin.json JSON Schema, or with --check
// verifies that the committed copy matches the manifest types.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/csstats/csstats-extension/internal/manifest"
)

var defaultOut = filepath.Join("schemas", manifest.SchemaFileName)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	out := flags.String("out", defaultOut, "schema file to write")
	check := flags.Bool("check", false, "fail if the schema file is stale instead of writing it")
	if err := flags.Parse(args); err != nil {
		return oops.In("gen-schema").Wrap(err)
	}

	schema, err := manifest.GenerateSchema()
	if err != nil {
		return err
	}
	schema = append(schema, '\n')

	if *check {
		current, err := os.ReadFile(*out)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return oops.In("gen-schema").With("path", *out).Errorf("%s does not exist, run gen-schema", *out)
		case err != nil:
			return oops.In("gen-schema").With("path", *out).Wrap(err)
		case !bytes.Equal(current, schema):
			return oops.In("gen-schema").With("path", *out).Errorf("%s is stale, run gen-schema", *out)
		}
		fmt.Fprintf(stdout, "%s is up to date\n", *out)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return oops.In("gen-schema").With("path", *out).Wrap(err)
	}
	if err := os.WriteFile(*out, schema, 0o600); err != nil {
		return oops.In("gen-schema").With("path", *out).Wrap(err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}
