package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoy-run/convoy/internal/model"
)

// fieldSet collects the Field values of a validation result for
// order-independent assertions.
func fieldSet(errs []ValidationError) map[string]bool {
	fields := make(map[string]bool, len(errs))
	for _, e := range errs {
		fields[e.Field] = true
	}
	return fields
}

func TestValidate_ValidPipelines(t *testing.T) {
	for _, fixture := range []string{"basic", "minimal", "envmatrix", "travis"} {
		dir := filepath.Join("testdata", fixture)
		p, _, err := FindAndLoad(dir)
		require.NoError(t, err, "fixture %s should load", fixture)

		errs := Validate(p)
		assert.Empty(t, errs, "fixture %s should validate cleanly, got %v", fixture, errs)
	}
}

// TestValidate_Invalid covers every check against the invalid fixture:
// wrong language, unsupported major version, duplicate version, bad env
// row, blank command, and missing script.
func TestValidate_Invalid(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "invalid", ".convoy.yml"))
	require.NoError(t, err, "the file is schema-invalid but still parseable")

	errs := Validate(p)
	require.NotEmpty(t, errs)
	fields := fieldSet(errs)

	assert.True(t, fields["language"], "ruby should be rejected")
	assert.True(t, fields["script"], "missing script should be reported")
	assert.True(t, fields["python[0]"], "python 4.0 should be rejected")
	assert.True(t, fields["python[2]"], "duplicate 3.6 should be reported")
	assert.True(t, fields["env.matrix[0]"], "env row without '=' should be rejected")
	assert.True(t, fields["before_install[0]"], "blank command should be rejected")
}

func TestValidate_DoesNotMutate(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "basic", ".convoy.yml"))
	require.NoError(t, err)

	before := *p
	_ = Validate(p)
	assert.Equal(t, before, *p, "validation must not mutate the pipeline")
}

func TestValidationError_Error(t *testing.T) {
	e := &ValidationError{Field: "script", Message: "script phase is required"}
	assert.Equal(t, "pipeline validation error: script: script phase is required", e.Error())
}

func TestValidateStrict(t *testing.T) {
	valid, err := Load(filepath.Join("testdata", "minimal", ".convoy.yml"))
	require.NoError(t, err)
	assert.NoError(t, ValidateStrict(valid))

	invalid, err := Load(filepath.Join("testdata", "invalid", ".convoy.yml"))
	require.NoError(t, err)
	err = ValidateStrict(invalid)
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigInvalid, cliErr.Code)
	assert.Contains(t, cliErr.Message, "script phase is required")
	assert.Contains(t, cliErr.Message, "duplicate python version")
}
