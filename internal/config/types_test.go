package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// --- StringList tests ---

func TestStringList_Scalar(t *testing.T) {
	var doc struct {
		Script StringList `yaml:"script"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("script: make test\n"), &doc))
	assert.Equal(t, StringList{"make test"}, doc.Script)
}

func TestStringList_Sequence(t *testing.T) {
	var doc struct {
		Script StringList `yaml:"script"`
	}
	in := "script:\n  - make lint\n  - make test\n"
	require.NoError(t, yaml.Unmarshal([]byte(in), &doc))
	assert.Equal(t, StringList{"make lint", "make test"}, doc.Script)
}

func TestStringList_RejectsMapping(t *testing.T) {
	var doc struct {
		Script StringList `yaml:"script"`
	}
	err := yaml.Unmarshal([]byte("script:\n  cmd: make test\n"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping")
}

// --- VersionList tests ---

// TestVersionList_PreservesFloatSpelling pins the one YAML trap this
// type exists for: an unquoted 3.0 must stay "3.0", not become "3".
func TestVersionList_PreservesFloatSpelling(t *testing.T) {
	var doc struct {
		Python VersionList `yaml:"python"`
	}
	in := "python:\n  - 2.7\n  - 3.0\n  - \"3.6\"\n"
	require.NoError(t, yaml.Unmarshal([]byte(in), &doc))
	assert.Equal(t, VersionList{"2.7", "3.0", "3.6"}, doc.Python)
}

func TestVersionList_Scalar(t *testing.T) {
	var doc struct {
		Python VersionList `yaml:"python"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("python: 3.6\n"), &doc))
	assert.Equal(t, VersionList{"3.6"}, doc.Python)
}

// --- SudoFlag tests ---

func TestSudoFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"sudo: false", false, false},
		{"sudo: true", true, false},
		{"sudo: required", true, false},
		{"sudo: enabled", true, false},
		{"sudo: maybe", false, true},
	}

	for _, tt := range tests {
		var doc struct {
			Sudo *SudoFlag `yaml:"sudo"`
		}
		err := yaml.Unmarshal([]byte(tt.input+"\n"), &doc)
		if tt.wantErr {
			assert.Error(t, err, "input %q should fail", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		require.NotNil(t, doc.Sudo)
		assert.Equal(t, tt.want, bool(*doc.Sudo), "input %q", tt.input)
	}
}

// --- EnvBlock tests ---

func TestEnvBlock_Scalar(t *testing.T) {
	var doc struct {
		Env EnvBlock `yaml:"env"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("env: DB=sqlite\n"), &doc))
	assert.Empty(t, doc.Env.Global)
	assert.Equal(t, []string{"DB=sqlite"}, doc.Env.Matrix)
}

func TestEnvBlock_Sequence(t *testing.T) {
	var doc struct {
		Env EnvBlock `yaml:"env"`
	}
	in := "env:\n  - DB=sqlite\n  - DB=postgres\n"
	require.NoError(t, yaml.Unmarshal([]byte(in), &doc))
	assert.Equal(t, []string{"DB=sqlite", "DB=postgres"}, doc.Env.Matrix)
}

func TestEnvBlock_Mapping(t *testing.T) {
	var doc struct {
		Env EnvBlock `yaml:"env"`
	}
	in := "env:\n  global:\n    - TOKEN=abc\n  matrix:\n    - DB=sqlite\n  jobs:\n    - DB=mysql\n"
	require.NoError(t, yaml.Unmarshal([]byte(in), &doc))
	assert.Equal(t, []string{"TOKEN=abc"}, doc.Env.Global)
	// "jobs" is an alias for "matrix"; rows from both are combined.
	assert.Equal(t, []string{"DB=sqlite", "DB=mysql"}, doc.Env.Matrix)
}

// --- ParseEnvRow tests ---

func TestParseEnvRow(t *testing.T) {
	env, err := ParseEnvRow("DB=postgres PORT=5432 EMPTY=")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB": "postgres", "PORT": "5432", "EMPTY": ""}, env)

	// A blank row is a valid empty set.
	env, err = ParseEnvRow("  ")
	require.NoError(t, err)
	assert.Empty(t, env)

	_, err = ParseEnvRow("NOT_AN_ASSIGNMENT")
	assert.Error(t, err)

	_, err = ParseEnvRow("=value")
	assert.Error(t, err, "empty key should be rejected")
}
