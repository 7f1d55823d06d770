// Package cli wires the command-line surface: build, check, run, and
// tokens subcommands over the pipeline.
package cli

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"gobasic/pkg/compiler"
	"gobasic/pkg/config"
)

var (
	optLevel   int
	outPath    string
	moduleName string
	configPath string
	logPath    string
	verbose    bool

	logger  *slog.Logger
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "gobasic",
	Short: "gobasic — legacy Basic to Starlark compiler",
	Long: `gobasic compiles legacy Basic-family source into Starlark.

Commands:
  build   Compile a source file and write the generated code
  check   Compile a source file and report diagnostics only
  run     Compile a source file and execute it
  tokens  Dump the token stream of a source file
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&optLevel, "optimize", "O", 0, "optimization level, 0 to 3")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file for generated code (default stdout)")
	rootCmd.PersistentFlags().StringVarP(&moduleName, "module", "m", "", "module name for diagnostics and output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gobasic.cue", "build settings file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(buildCmd, checkCmd, runCmd, tokensCmd)
}

// setupLogging fans log records out to stderr and, when requested, a
// log file.
func setupLogging() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, opts),
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		logFile = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}
	logger = slog.New(slogmulti.Fanout(handlers...))
	return nil
}

// effectiveConfig merges defaults, the settings file, and flags. Flags the
// user set explicitly win over the file.
func effectiveConfig(cmd *cobra.Command) (compiler.Config, error) {
	cfg := compiler.DefaultConfig()

	loader := config.NewLoader([]string{configPath})
	cfg, err := loader.Apply(cfg)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("optimize") {
		cfg.OptimizationLevel = optLevel
	}
	if moduleName != "" {
		cfg.ModuleName = moduleName
	}
	return cfg, nil
}
