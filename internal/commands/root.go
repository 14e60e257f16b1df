package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-parser/internal/buildinfo"
	"github.com/insightdelivered/bank-statement-parser/internal/category"
	"github.com/insightdelivered/bank-statement-parser/internal/config"
	"github.com/insightdelivered/bank-statement-parser/internal/logger"
)

// app is the state shared by all subcommands. It is filled in before any
// subcommand runs.
type app struct {
	configFile     string
	categoriesFile string
	logLevel       string

	cfg        *config.Config
	log        zerolog.Logger
	categories *category.Configuration
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "stan",
		Short:   "Parse German bank statement PDFs",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "settings file (YAML)")
	flags.StringVar(&a.categoriesFile, "categories", "", "category configuration (JSON or YAML), the built-in one if empty")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error or disabled")

	rootCmd.AddCommand(
		newParseCommand(a),
		newFilterCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("categories") {
		cfg.CategoriesFile = a.categoriesFile
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.New(cfg.LogLevel)

	if cfg.CategoriesFile != "" {
		a.categories, err = category.Load(cfg.CategoriesFile)
	} else {
		a.categories, err = category.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}

	a.log.Debug().
		Str("categories_file", cfg.CategoriesFile).
		Int("categories", a.categories.Len()).
		Msg("configuration loaded")
	return nil
}
