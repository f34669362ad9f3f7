package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/config"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wikimunge",
	Short: "Expand MediaWiki templates and parser functions ahead of rendering",
	Long: `wikimunge preprocesses MediaWiki wikitext: it expands templates,
parser functions, and arguments into flat text a downstream parser or
renderer can consume, without evaluating a full MediaWiki stack.

Configuration file locations (in order of precedence):
  1. --config flag
  2. .wikimunge.yaml in the current directory
  3. ~/.config/wikimunge/config.yaml
Any WIKIMUNGE_* environment variable overrides the file; any flag
overrides both.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitViper(v, cfgFile); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Load(v)

		var zerr error
		if cfg.Development {
			logger, zerr = zap.NewDevelopment()
		} else {
			logger, zerr = zap.NewProduction()
		}
		return zerr
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .wikimunge.yaml)")
	config.Bind(v, rootCmd.PersistentFlags())

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "wikimunge:", err)
	os.Exit(1)
}
