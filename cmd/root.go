package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ai_blog_post_writer/config"
)

type rootOptions struct {
	ConfigPath string
	Model      string
	Verbose    bool
	Mock       bool
}

var (
	opts rootOptions
	cfg  config.Config
)

var rootCmd = &cobra.Command{
	Use:           "blogwriter",
	Short:         "AI blog post writer: topic ideas, illustrated posts, HTML export",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
		if opts.Model != "" {
			loaded.Gemini.Model = opts.Model
		}
		cfg = loaded
		setupLogger(cfg.Logging.Level, opts.Verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "path to config.json")
	rootCmd.PersistentFlags().StringVar(&opts.Model, "model", "", "Gemini text model (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logs")
	rootCmd.PersistentFlags().BoolVar(&opts.Mock, "mock", false, "use the offline mock backend")

	rootCmd.AddCommand(serveCmd, suggestCmd, generateCmd, keyCmd)
}

// setupLogger writes text logs to stderr; -v always wins over the configured level.
func setupLogger(level string, verbose bool) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
