// Package config parses, validates, and expands convoy pipeline files.
//
// The pipeline file is the user-facing contract: YAML (or JSONC) with a
// python version matrix, optional env rows, and per-phase command lists.
// Loading tolerates unknown keys; validation is strict about everything
// convoy actually executes. Matrix expansion turns the declaration into
// the ordered list of independent jobs the runner executes.
package config
