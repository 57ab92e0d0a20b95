// load.go locates and parses the pipeline file.
//
// Lookup order mirrors the config discovery of comparable tools: the
// convoy-native names first, then .travis.yml as a compatibility
// fallback so existing repositories run unmodified.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/convoy-run/convoy/internal/model"
)

// DefaultNames lists the recognized pipeline filenames in priority order.
var DefaultNames = []string{
	".convoy.yml",
	".convoy.yaml",
	"convoy.yml",
	".convoy.json",
	".convoy.jsonc",
	".travis.yml",
}

// Find locates the pipeline file in dir by probing DefaultNames in order.
//
// Returns a CLIError with ExitConfigNotFound if none of the candidate
// names exist.
func Find(dir string) (string, error) {
	for _, name := range DefaultNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", model.NewCLIError(
		model.ExitConfigNotFound,
		fmt.Sprintf("no pipeline file found in %s (looked for %s)", dir, strings.Join(DefaultNames, ", ")),
	)
}

// Load reads and parses a pipeline file.
//
// Files with a .json or .jsonc extension are stripped of comments and
// trailing commas with jsonc.ToJSON first. The result is parsed with
// yaml.v3 in both cases — JSON is a subset of YAML, so a single decode
// path (and a single set of custom unmarshalers) covers both formats.
//
// Returns a CLIError with ExitConfigNotFound if the file does not exist,
// or ExitConfigInvalid if it cannot be parsed.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigNotFound,
				fmt.Sprintf("pipeline file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes raw pipeline bytes. The path is only used for the
// format switch and error messages.
func Parse(data []byte, path string) (*Pipeline, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// Comments and trailing commas are common in hand-maintained
		// JSON configs; strip them before parsing.
		data = jsonc.ToJSON(data)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigInvalid,
			fmt.Sprintf("failed to parse pipeline file %s", path),
			err,
		)
	}

	return &p, nil
}

// FindAndLoad combines Find and Load for the common "run from a project
// directory" entry point.
func FindAndLoad(dir string) (*Pipeline, string, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, "", err
	}
	p, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return p, path, nil
}
