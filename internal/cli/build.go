package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gobasic/pkg/compiler"
	"gobasic/pkg/host"
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile a source file and write the generated code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compileFile(cmd, args[0])
		if err != nil {
			return err
		}
		reportDiagnostics(res.Diagnostics)
		if res.GeneratedCode == "" {
			return fmt.Errorf("build: no output generated")
		}
		if outPath == "" {
			fmt.Print(res.GeneratedCode)
			return nil
		}
		if err := os.WriteFile(outPath, []byte(res.GeneratedCode), 0o644); err != nil {
			return err
		}
		logger.Info("wrote output", "path", outPath, "bytes", len(res.GeneratedCode))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Compile a source file and report diagnostics only",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compileFile(cmd, args[0])
		if err != nil {
			return err
		}
		reportDiagnostics(res.Diagnostics)
		if compiler.HasErrors(res.Diagnostics) {
			return fmt.Errorf("check: source has errors")
		}
		logger.Info("check passed", "diagnostics", len(res.Diagnostics))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile a source file and execute it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compileFile(cmd, args[0])
		if err != nil {
			return err
		}
		reportDiagnostics(res.Diagnostics)
		if compiler.HasErrors(res.Diagnostics) {
			return fmt.Errorf("run: source has errors")
		}
		out, err := host.Run(moduleNameFor(args[0]), res.GeneratedCode)
		fmt.Print(out)
		return err
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Dump the token stream of a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		tokens, diags := compiler.Lex(string(src))
		for _, tok := range tokens {
			fmt.Println(tok)
		}
		reportDiagnostics(diags)
		return nil
	},
}

func compileFile(cmd *cobra.Command, path string) (compiler.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return compiler.Result{}, err
	}
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return compiler.Result{}, err
	}
	if moduleName == "" {
		cfg.ModuleName = moduleNameFor(path)
	}
	logger.Debug("compiling", "file", path, "module", cfg.ModuleName, "optimize", cfg.OptimizationLevel)
	return compiler.Compile(string(src), cfg)
}

// moduleNameFor derives the module name from the file name.
func moduleNameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func reportDiagnostics(diags []compiler.Diagnostic) {
	for _, d := range diags {
		if d.Severity == compiler.SevError {
			logger.Error(d.Message, "code", d.Code, "span", d.Span.String())
		} else {
			logger.Warn(d.Message, "code", d.Code, "span", d.Span.String())
		}
	}
}
