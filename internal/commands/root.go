// Package commands wires the CLI surface: one-shot reporting, agent mode
// and version information.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanops/asbuilt/internal/config"
	"github.com/sanops/asbuilt/internal/logging"
	"github.com/sanops/asbuilt/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	cfg       *config.Config
	flushLogs func()
)

var rootCmd = &cobra.Command{
	Use:   "asbuilt",
	Short: "Storage-cluster as-built reporting tool",
	Long: `asbuilt connects to a storage cluster's management API, negotiates the
best supported API revision, collects the hardware inventory and optionally
reconstructs the physical cabling topology over SSH. The result is rendered
as JSON, CSV, spreadsheet and PDF as-built artifacts.`,
	Version: version.Version,
}

func Execute() error {
	defer func() {
		if flushLogs != nil {
			flushLogs()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	flushLogs, err = logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
}
