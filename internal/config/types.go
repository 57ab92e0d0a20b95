// types.go defines the pipeline document model and its custom YAML
// unmarshalers.
//
// Several keys accept either a scalar or a list (script, python, the
// other phases), and the env key accepts a scalar, a sequence, or a
// global/matrix mapping. The wrapper types here normalize those shapes
// at decode time so the rest of the code only ever sees lists.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/convoy-run/convoy/internal/model"
)

// StringList is a []string that also accepts a single YAML scalar.
// Pipeline files conventionally allow both forms:
//
//	script: make test
//
//	script:
//	  - make lint
//	  - make test
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for the scalar-or-list shape.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		// Use the raw scalar text so unquoted values keep their exact
		// spelling regardless of how YAML would type them.
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a string, got a %s", item.Line, nodeKind(item))
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or list of strings, got a %s", value.Line, nodeKind(value))
	}
}

// VersionList holds interpreter version strings from the matrix.
// Like StringList it accepts a scalar or a sequence, and it preserves
// the literal text of each entry: the YAML document may spell a version
// as an unquoted float (3.5) and "3.0" must not collapse to "3".
type VersionList []string

// UnmarshalYAML implements yaml.Unmarshaler for the scalar-or-list shape.
func (l *VersionList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = VersionList{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make(VersionList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a version string, got a %s", item.Line, nodeKind(item))
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a version or list of versions, got a %s", value.Line, nodeKind(value))
	}
}

// SudoFlag represents the "sudo" key. Historically this key selected the
// runner infrastructure: "sudo: false" requested an unprivileged
// container, "sudo: required" a full virtual machine. convoy maps false
// to the docker executor and true to the local executor when the
// executor setting is "auto".
type SudoFlag bool

// UnmarshalYAML accepts booleans plus the legacy "required"/"enabled"
// spellings, which both mean sudo access (true).
func (s *SudoFlag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: sudo must be a boolean or \"required\"", value.Line)
	}
	switch strings.ToLower(value.Value) {
	case "false":
		*s = false
	case "true", "required", "enabled":
		*s = true
	default:
		return fmt.Errorf("line %d: invalid sudo value %q", value.Line, value.Value)
	}
	return nil
}

// EnvBlock represents the "env" key. Three document shapes are accepted:
//
//	env: DB=sqlite                 # one matrix row
//
//	env:                           # one matrix row per entry
//	  - DB=sqlite
//	  - DB=postgres
//
//	env:                           # explicit global/matrix split
//	  global:
//	    - CODECOV_TOKEN=abc
//	  matrix:
//	    - DB=sqlite
//	    - DB=postgres
//
// Global rows apply to every job; each matrix row produces its own set
// of jobs when crossed with the interpreter versions. A "jobs" key is
// accepted as an alias for "matrix".
type EnvBlock struct {
	// Global holds env rows applied to every job.
	Global []string

	// Matrix holds env rows that multiply the job matrix.
	Matrix []string
}

// UnmarshalYAML implements yaml.Unmarshaler for the three env shapes.
func (e *EnvBlock) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		var rows StringList
		if err := rows.UnmarshalYAML(value); err != nil {
			return err
		}
		e.Matrix = rows
		return nil
	case yaml.MappingNode:
		var aux struct {
			Global StringList `yaml:"global"`
			Matrix StringList `yaml:"matrix"`
			Jobs   StringList `yaml:"jobs"`
		}
		if err := value.Decode(&aux); err != nil {
			return err
		}
		e.Global = aux.Global
		e.Matrix = append([]string(aux.Matrix), aux.Jobs...)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string, list, or global/matrix mapping for env", value.Line)
	}
}

// Pipeline is the parsed pipeline file. Only the recognized keys are
// decoded; unknown top-level keys are silently ignored, matching the
// tolerant parsing of hosted CI providers.
type Pipeline struct {
	// Language declares the toolchain. Only "python" is supported;
	// an empty value defaults to python.
	Language string `yaml:"language"`

	// Dist is an informational build-image hint (e.g. "xenial").
	// convoy records it but does not act on it.
	Dist string `yaml:"dist"`

	// Sudo selects the runner infrastructure. Nil when the key is
	// absent from the file.
	Sudo *SudoFlag `yaml:"sudo"`

	// Python is the interpreter version matrix. Empty means one job on
	// DefaultPythonVersion.
	Python VersionList `yaml:"python"`

	// Env holds global and matrix environment rows.
	Env EnvBlock `yaml:"env"`

	// Lifecycle phases. Script is the only required one.
	BeforeInstall StringList `yaml:"before_install"`
	Install       StringList `yaml:"install"`
	BeforeScript  StringList `yaml:"before_script"`
	Script        StringList `yaml:"script"`
	AfterSuccess  StringList `yaml:"after_success"`
	AfterFailure  StringList `yaml:"after_failure"`
	AfterScript   StringList `yaml:"after_script"`
}

// Phase returns the commands declared for a lifecycle phase.
// Returns nil for phases the file does not declare.
func (p *Pipeline) Phase(name model.PhaseName) []string {
	switch name {
	case model.PhaseBeforeInstall:
		return p.BeforeInstall
	case model.PhaseInstall:
		return p.Install
	case model.PhaseBeforeScript:
		return p.BeforeScript
	case model.PhaseScript:
		return p.Script
	case model.PhaseAfterSuccess:
		return p.AfterSuccess
	case model.PhaseAfterFailure:
		return p.AfterFailure
	case model.PhaseAfterScript:
		return p.AfterScript
	default:
		return nil
	}
}

// WantsContainer reports whether the file requested the unprivileged
// container infrastructure ("sudo: false").
func (p *Pipeline) WantsContainer() bool {
	return p.Sudo != nil && !bool(*p.Sudo)
}

// ParseEnvRow splits an env row like "DB=postgres CACHE=redis" into a
// key/value map. Tokens are whitespace-separated; each must be KEY=VALUE
// with a non-empty key.
func ParseEnvRow(row string) (map[string]string, error) {
	tokens := strings.Fields(row)
	env := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		key, val, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid env entry %q: expected KEY=VALUE", tok)
		}
		env[key] = val
	}
	return env, nil
}

// nodeKind names a YAML node kind for error messages.
func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown node"
	}
}
