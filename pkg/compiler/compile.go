package compiler

// Config controls one pipeline run.
type Config struct {
	// ModuleName names the compilation unit in diagnostics and generated
	// output. Empty defaults to "main".
	ModuleName string

	// OptimizationLevel selects the optimizer pass set, 0 through 3.
	OptimizationLevel int

	// HaltOnFatalOnly keeps the pipeline running past recoverable errors;
	// only an internal invariant violation aborts. When false, any error
	// diagnostic stops the run before code generation.
	HaltOnFatalOnly bool

	// GenerateOnErrors emits best-effort output even when error
	// diagnostics exist, for IDE-style live preview.
	GenerateOnErrors bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ModuleName:        "main",
		OptimizationLevel: 0,
		HaltOnFatalOnly:   true,
		GenerateOnErrors:  true,
	}
}

// Result is the output of one pipeline run. Diagnostics accumulate across
// all stages and are position-sorted; GeneratedCode is empty when
// generation was skipped.
type Result struct {
	GeneratedCode string
	SourceMap     SourceMap
	Diagnostics   []Diagnostic

	// Module and Symbols expose the annotated tree and table for callers
	// that run further analysis, such as the project index.
	Module  *Module
	Symbols *SymbolTable
}

// Compile runs the five-stage pipeline over one unit's source text. The
// returned error is non-nil only for an internal invariant violation; every
// user-input problem is a Diagnostic in the result.
func Compile(src string, cfg Config) (Result, error) {
	if cfg.ModuleName == "" {
		cfg.ModuleName = "main"
	}

	var res Result
	tokens, diags := Lex(src)
	res.Diagnostics = diags

	mod, parseDiags := Parse(tokens, cfg.ModuleName)
	res.Diagnostics = append(res.Diagnostics, parseDiags...)
	res.Module = mod

	table, semDiags := Analyze(mod)
	res.Diagnostics = append(res.Diagnostics, semDiags...)
	res.Symbols = table

	generate := true
	if HasErrors(res.Diagnostics) {
		if !cfg.HaltOnFatalOnly || !cfg.GenerateOnErrors {
			generate = false
		}
	}
	if generate {
		code, smap, genDiags, err := Generate(mod, table)
		res.Diagnostics = append(res.Diagnostics, genDiags...)
		if err != nil {
			SortDiagnostics(res.Diagnostics)
			return res, err
		}
		res.SourceMap = smap

		code, err = Optimize(code, cfg.OptimizationLevel)
		if err != nil {
			SortDiagnostics(res.Diagnostics)
			return res, err
		}
		res.GeneratedCode = code
	}

	SortDiagnostics(res.Diagnostics)
	return res, nil
}
