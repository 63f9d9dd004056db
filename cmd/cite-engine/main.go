// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cite-engine CLI. The serve
// subcommand runs the HTTP citation service; the other subcommands expose
// single pipeline stages for local use.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-engine/internal/logging"
	"github.com/pdiddy/cite-engine/internal/secrets"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state resolved in PersistentPreRunE.
var (
	cfg    types.PipelineConfig
	creds  secrets.Credentials
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cite-engine",
	Short: "Add academic citations to essay text",
	Long: `cite-engine finds papers related to an essay, matches essay sentences to
abstract passages by semantic similarity, and asks a language model to rewrite
the sentences that need an "(Author, Year)" citation.

Run "cite-engine serve" for the HTTP service, or use cite, keywords and search
to run the pipeline or single stages from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := secrets.LoadEnvFiles(secrets.DefaultEnvFiles...); err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		creds = secrets.Resolve(s, os.Getenv)

		cfg = types.DefaultPipelineConfig()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}
		if cfg.Search.APIKey != "" {
			creds.SemanticScholarKey = cfg.Search.APIKey
		}

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cite-engine.yaml or ~/.config/cite-engine/config.yaml)")
	pf.String("secrets-dir", ".secrets", "directory of API key files")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log encoding: json or console")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

// initConfig seeds viper with the built-in defaults so every key is known
// to AutomaticEnv, then merges the config file over them.
func initConfig() {
	viper.SetConfigType("yaml")
	defaults, err := yaml.Marshal(types.DefaultPipelineConfig())
	if err == nil {
		viper.ReadConfig(bytes.NewReader(defaults))
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cite-engine")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cite-engine"))
		}
	}

	viper.SetEnvPrefix("CITE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.MergeInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	case errors.As(err, &notFound):
	default:
		fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
