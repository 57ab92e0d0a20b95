// Package settings loads runner configuration (as opposed to the
// pipeline file, which describes the build itself). Values are layered:
// built-in defaults, then an optional convoy.yaml settings file, then
// CONVOY_* environment variables, then command-line flags.
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/convoy-run/convoy/internal/model"
)

// Executor backend selectors. "auto" defers to the pipeline file:
// "sudo: false" selects docker, anything else runs locally.
const (
	ExecutorAuto   = "auto"
	ExecutorLocal  = "local"
	ExecutorDocker = "docker"
)

// DefaultFileName is the settings file looked up in the working
// directory when --settings is not given.
const DefaultFileName = "convoy.yaml"

// envPrefix is the prefix of recognized environment variables, e.g.
// CONVOY_EXECUTOR or CONVOY_DOCKER_IMAGE_PATTERN.
const envPrefix = "CONVOY_"

// Docker configures the container backend.
type Docker struct {
	// Images maps interpreter versions to explicit image references,
	// overriding ImagePattern per version.
	Images map[string]string `koanf:"images"`

	// ImagePattern builds an image reference from a version via
	// fmt.Sprintf. Defaults to "python:%s-slim".
	ImagePattern string `koanf:"image_pattern"`

	// KeepContainers leaves job containers behind for inspection
	// instead of removing them after the run.
	KeepContainers bool `koanf:"keep_containers"`
}

// Settings is the fully resolved runner configuration.
type Settings struct {
	// Executor selects the step backend: auto, local, or docker.
	Executor string `koanf:"executor"`

	// Concurrency bounds parallel matrix jobs. Zero means one worker
	// per job, so the whole matrix runs in parallel.
	Concurrency int `koanf:"concurrency"`

	// Shell is the shell binary used for steps. Defaults to /bin/sh.
	Shell string `koanf:"shell"`

	// Docker holds container backend options.
	Docker Docker `koanf:"docker"`
}

// defaults is the bottom layer of the configuration stack.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"executor":             ExecutorAuto,
		"concurrency":          0,
		"shell":                "/bin/sh",
		"docker.image_pattern": "python:%s-slim",
	}
}

// RegisterFlags declares the settings-backed flags on a flag set. The
// flag names double as koanf keys, so posflag can merge them directly.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("executor", ExecutorAuto, "step backend: auto, local, or docker")
	flags.Int("concurrency", 0, "number of matrix jobs to run in parallel (0 = all)")
	flags.String("shell", "/bin/sh", "shell used to run steps")
	flags.String("docker.image_pattern", "python:%s-slim", "image reference pattern, applied to the python version")
	flags.Bool("docker.keep_containers", false, "keep job containers after the run")
}

// Load resolves the settings stack. filePath may be empty, in which
// case DefaultFileName is used if present; a missing explicit file is
// an error, a missing default file is not. flags may be nil.
func Load(filePath string, flags *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default settings: %w", err)
	}

	explicit := filePath != ""
	if filePath == "" {
		filePath = DefaultFileName
	}
	if _, err := os.Stat(filePath); err == nil {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigInvalid,
				fmt.Sprintf("failed to parse settings file %s", filePath),
				err,
			)
		}
	} else if explicit {
		return nil, model.WrapCLIError(
			model.ExitConfigNotFound,
			fmt.Sprintf("settings file not found: %s", filePath),
			err,
		)
	}

	// CONVOY_DOCKER_IMAGE_PATTERN -> docker.image_pattern. Underscores
	// inside a section name survive because only the section separator
	// is a dot in the key space.
	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment settings: %w", err)
	}

	if flags != nil {
		// Only merge flags the user actually set, so file and
		// environment values are not clobbered by flag defaults.
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flag settings: %w", err)
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// envToKey maps CONVOY_DOCKER_IMAGE_PATTERN to docker.image_pattern.
// Known section prefixes become path components; the rest of the name
// keeps its underscores.
func envToKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if rest, ok := strings.CutPrefix(key, "docker_"); ok {
		return "docker." + rest
	}
	return key
}

func (s *Settings) validate() error {
	switch s.Executor {
	case ExecutorAuto, ExecutorLocal, ExecutorDocker:
	default:
		return model.NewCLIError(
			model.ExitConfigInvalid,
			fmt.Sprintf("invalid executor %q: must be auto, local, or docker", s.Executor),
		)
	}
	// Negative values collapse to 0, the "one worker per job" default.
	if s.Concurrency < 0 {
		s.Concurrency = 0
	}
	return nil
}
