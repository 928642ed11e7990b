package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/rx/internal/config"
	rxerrors "github.com/vango-dev/rx/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "rx",
		Short: "Run and inspect rx reactive applications",
		Long: `rx is a path-addressed reactive UI runtime for Go.

This command runs the bundled demo application:

  • serve     hydrated pages, live state, metrics and devtools over HTTP
  • render    print a hydrated page to stdout
  • snapshot  save and load state snapshots (memory, bolt or s3)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to rx.yaml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		serveCmd(opts),
		renderCmd(opts),
		snapshotCmd(opts),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		rxerrors.SetColor(isTerminal(os.Stderr))
		rxerrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config, or rx.yaml from
// the project root, or the defaults when neither exists.
func (o *options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case o.configPath != "":
		cfg, err = config.LoadFile(o.configPath)
	default:
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		if root, findErr := config.FindProjectRoot(wd); findErr == nil {
			cfg, err = config.Load(root)
		} else {
			cfg = config.New()
			cfg.ApplyEnv(os.Getenv)
		}
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
