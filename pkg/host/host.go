// Package host executes generated code inside an embedded interpreter
// with the runtime-support library preinstalled. It is the bridge the CLI
// run command and the end-to-end tests use.
package host

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"gobasic/pkg/compiler"
	"gobasic/pkg/stdlib"
)

// fileOptions matches the dialect the code generator emits: top-level
// control flow, while loops, global reassignment, and recursion.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Run executes generated code and returns its print output. Execution
// errors carry the generated-code position; callers can map it back
// through the source map.
func Run(name, code string) (string, error) {
	out := &stdlib.Output{}
	thread := &starlark.Thread{Name: name}
	thread.SetLocal(stdlib.OutputKey, out)

	_, err := starlark.ExecFileOptions(fileOptions, thread, name+".star", code, stdlib.Builtins())
	if err != nil {
		return out.String(), fmt.Errorf("run %s: %w", name, err)
	}
	return out.String(), nil
}

// CompileAndRun compiles source and, when no error diagnostics remain,
// executes the result. Diagnostics are returned either way.
func CompileAndRun(src string, cfg compiler.Config) (string, []compiler.Diagnostic, error) {
	res, err := compiler.Compile(src, cfg)
	if err != nil {
		return "", res.Diagnostics, err
	}
	if compiler.HasErrors(res.Diagnostics) {
		return "", res.Diagnostics, fmt.Errorf("compile %s: source has errors", cfg.ModuleName)
	}
	output, err := Run(cfg.ModuleName, res.GeneratedCode)
	return output, res.Diagnostics, err
}
