// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package main is the entry point for the ingestor CLI: a cobra command
// tree wiring config, logging, the source registry, and the pipeline
// orchestrator into the three subcommands the ingestion pipeline exposes
// to operators (insert, sources, version).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X main.version=..." at build time.
var version = "dev"

// catalogPath is the shared --catalog flag: the YAML source catalog file
// every subcommand that touches the registry reads from.
var catalogPath string

// cliError carries the process exit code spec §6 assigns to a failure
// (1 for misuse, 2 for an internal error) alongside the underlying error.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func misuseError(format string, args ...any) error {
	return &cliError{code: 1, err: fmt.Errorf(format, args...)}
}

func internalError(err error) error {
	return &cliError{code: 2, err: err}
}

var rootCmd = &cobra.Command{
	Use:           "ingestor",
	Short:         "Multi-source Spanish cultural-event ingestion pipeline",
	Long:          `ingestor fetches, normalizes, enriches, classifies, deduplicates, and persists cultural-event records from GOLD/SILVER/BRONZE tier sources into the shared event store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "sources.yaml", "path to the YAML source catalog")
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ce *cliError
		if asCliError(err, &ce) {
			os.Exit(ce.code)
		}
		os.Exit(2)
	}
}

// asCliError unwraps err looking for a *cliError without importing errors
// twice over; cobra wraps RunE's return value as-is, so a direct type
// assertion is enough here.
func asCliError(err error, target **cliError) bool {
	ce, ok := err.(*cliError)
	if !ok {
		return false
	}
	*target = ce
	return true
}
