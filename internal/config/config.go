// Package config loads the controller configuration through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/bnema/composectl/internal/domain"
)

// EnvPrefix is the prefix of every environment variable read by viper.
const EnvPrefix = "COMPOSECTL"

// Config keys.
const (
	KeyComposeFile       = "compose_file"
	KeyProjectDir        = "project_dir"
	KeyProjectName       = "project_name"
	KeyComposeCommand    = "compose_command"
	KeyDockerCommand     = "docker_command"
	KeyDockerHost        = "docker_host"
	KeyLogLevel          = "log_level"
	KeyWaitTimeout       = "wait_timeout"
	KeyMinComposeVersion = "min_compose_version"
	KeyShimImage         = "shim.image"
	KeyShimInterface     = "shim.interface"
	KeyShimPull          = "shim.pull"
)

type Config struct {
	ComposeFile       string
	ProjectDir        string
	ProjectName       string
	ComposeCommand    []string
	DockerCommand     []string
	DockerHost        string
	LogLevel          string
	WaitTimeout       time.Duration
	MinComposeVersion string
	Shim              ShimConfig
}

type ShimConfig struct {
	Image     string
	Interface string
	Pull      bool
}

// SetDefaults registers the default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault(KeyComposeFile, "/docker-compose.yml")
	viper.SetDefault(KeyComposeCommand, []string{"docker-compose"})
	viper.SetDefault(KeyDockerCommand, []string{"docker"})
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyWaitTimeout, 60*time.Second)
	viper.SetDefault(KeyMinComposeVersion, "1.25.0")
	viper.SetDefault(KeyShimImage, "gaiadocker/iproute2")
	viper.SetDefault(KeyShimInterface, "eth0")
	viper.SetDefault(KeyShimPull, false)
}

// Load reads the configuration from viper and resolves the project name.
func Load(fsys afero.Fs) (*Config, error) {
	SetDefaults()

	cfg := &Config{
		ComposeFile:       viper.GetString(KeyComposeFile),
		ProjectDir:        viper.GetString(KeyProjectDir),
		ComposeCommand:    viper.GetStringSlice(KeyComposeCommand),
		DockerCommand:     viper.GetStringSlice(KeyDockerCommand),
		DockerHost:        viper.GetString(KeyDockerHost),
		LogLevel:          viper.GetString(KeyLogLevel),
		WaitTimeout:       viper.GetDuration(KeyWaitTimeout),
		MinComposeVersion: viper.GetString(KeyMinComposeVersion),
		Shim: ShimConfig{
			Image:     viper.GetString(KeyShimImage),
			Interface: viper.GetString(KeyShimInterface),
			Pull:      viper.GetBool(KeyShimPull),
		},
	}

	// The project directory defaults to the working directory, as for docker-compose.
	if cfg.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &domain.ConfigError{Reason: "failed to determine working directory", Err: err}
		}
		cfg.ProjectDir = wd
	}

	name, err := ResolveProjectName(fsys, cfg.ProjectDir, viper.GetString(KeyProjectName))
	if err != nil {
		return nil, err
	}
	cfg.ProjectName = name

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the controller cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ComposeFile == "":
		return &domain.ConfigError{Reason: KeyComposeFile + " is required"}
	case len(c.ComposeCommand) == 0:
		return &domain.ConfigError{Reason: KeyComposeCommand + " must not be empty"}
	case len(c.DockerCommand) == 0:
		return &domain.ConfigError{Reason: KeyDockerCommand + " must not be empty"}
	case c.WaitTimeout <= 0:
		return &domain.ConfigError{Reason: KeyWaitTimeout + " must be positive"}
	case c.Shim.Image == "":
		return &domain.ConfigError{Reason: KeyShimImage + " is required"}
	case c.Shim.Interface == "":
		return &domain.ConfigError{Reason: KeyShimInterface + " is required"}
	}

	if c.MinComposeVersion != "" {
		if _, err := semver.NewVersion(c.MinComposeVersion); err != nil {
			return &domain.ConfigError{Reason: KeyMinComposeVersion + " is not a version", Err: err}
		}
	}
	return nil
}

// DefaultProjectName is used when the project directory's basename has no
// usable characters, such as for the filesystem root.
const DefaultProjectName = "default"

// ResolveProjectName derives the compose project name the way docker-compose
// does: an explicit name, then COMPOSE_PROJECT_NAME from the environment, then
// from <dir>/.env, then the basename of dir.
func ResolveProjectName(fsys afero.Fs, dir, explicit string) (string, error) {
	candidates := []func() (string, error){
		func() (string, error) { return explicit, nil },
		func() (string, error) { return os.Getenv("COMPOSE_PROJECT_NAME"), nil },
		func() (string, error) { return projectNameFromDotEnv(fsys, dir) },
	}

	for _, candidate := range candidates {
		raw, err := candidate()
		if err != nil {
			return "", err
		}
		if raw == "" {
			continue
		}
		name := NormalizeProjectName(raw)
		if name == "" {
			return "", &domain.ConfigError{Reason: fmt.Sprintf("project name %q has no valid characters", raw)}
		}
		return name, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &domain.ConfigError{Path: dir, Reason: "failed to resolve project directory", Err: err}
	}
	if name := NormalizeProjectName(filepath.Base(abs)); name != "" {
		return name, nil
	}
	return DefaultProjectName, nil
}

func projectNameFromDotEnv(fsys afero.Fs, dir string) (string, error) {
	path := filepath.Join(dir, ".env")
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", &domain.ConfigError{Path: path, Reason: "failed to open env file", Err: err}
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return "", &domain.ConfigError{Path: path, Reason: "malformed env file", Err: err}
	}
	return env["COMPOSE_PROJECT_NAME"], nil
}

// NormalizeProjectName lowercases the name and drops every character outside [-_a-z0-9].
func NormalizeProjectName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, strings.ToLower(name))
}
