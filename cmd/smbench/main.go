package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/smbench/pkg/config"
	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/storage"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFiles []string
	logLevel string
	log      *logrus.Logger
)

func main() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "smbench",
	Short: "SM Bench results viewer",
	Long: `smbench serves and exports the SM Bench results viewer: a ranked
leaderboard, per-run detail pages and a side-by-side comparison of runs
read from local or S3 storage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}

		log.SetLevel(level)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smbench %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&cfgFiles, "config", nil,
		"config file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level ("+strings.Join(logLevels(), ", ")+")")

	rootCmd.AddCommand(versionCmd)
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}

// loadConfig loads and validates the configuration. The log level from
// the config applies unless --log-level was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		level, _ := logrus.ParseLevel(cfg.Global.LogLevel)
		log.SetLevel(level)
	}

	return cfg, nil
}

// openSource builds the dataset source and vendor resolver described by
// cfg.
func openSource(cfg *config.Config) (*dataset.Source, *vendor.Resolver, error) {
	reader, err := storage.NewReader(&cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("creating storage reader: %w", err)
	}

	resolver := vendor.Default()

	if cfg.Vendors.RulesFile != "" {
		resolver, err = vendor.Load(cfg.Vendors.RulesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading vendor rules: %w", err)
		}
	}

	return dataset.NewSource(log, reader), resolver, nil
}
