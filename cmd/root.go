package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/composectl/internal/app"
	"github.com/bnema/composectl/internal/config"
	"github.com/bnema/composectl/internal/domain"
	"github.com/bnema/composectl/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "composectl",
	Short: "composectl - drive a docker-compose test environment",
	Long: `composectl controls the services of a docker-compose project from the outside:
it disconnects them from networks, stops them and delays their traffic around
a command, and always puts the project back the way it found it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	if version != "" {
		BuildVersion, BuildCommit, BuildDate = version, commit, date
	}
	err := rootCmd.Execute()
	if err != nil {
		logger.Error(err.Error())
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code. A failed
// child command keeps its own exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./composectl.yaml)")
	flags.String("compose-file", "/docker-compose.yml", "path to the compose file")
	flags.StringP("project", "p", "", "compose project name (default: derived like docker-compose)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("docker-host", "", "Docker daemon address used for helper containers")

	_ = viper.BindPFlag(config.KeyComposeFile, flags.Lookup("compose-file"))
	_ = viper.BindPFlag(config.KeyProjectName, flags.Lookup("project"))
	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyDockerHost, flags.Lookup("docker-host"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("composectl")
		viper.SetConfigType("yaml")

		// Current directory (highest priority)
		viper.AddConfigPath(".")

		if userConfigDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(userConfigDir, "composectl"))
		}
		viper.AddConfigPath("/etc/composectl")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("Using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
}

// newController loads the configuration and wires a controller for one command.
func newController() (*app.Controller, error) {
	cfg, err := config.Load(afero.NewOsFs())
	if err != nil {
		return nil, err
	}

	l := logger.GetLogger()
	l.SetLogLevel(cfg.LogLevel)
	l.ConfigureFromEnv()

	return app.New(cfg, l.Logger)
}

// withController runs fn with a controller that is closed afterwards.
func withController(ctx context.Context, fn func(ctx context.Context, c *app.Controller) error) error {
	c, err := newController()
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close controller", "err", err)
		}
	}()
	return fn(ctx, c)
}
