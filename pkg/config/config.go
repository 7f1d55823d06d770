// Package config loads build settings from CUE files. Settings mirror the
// pipeline Config; a missing file means defaults, a present file is
// schema-validated before any value is read.
package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"gobasic/pkg/compiler"
)

var ErrValueNotFound = errors.New("value not found")

// schema constrains the recognized settings.
const schema = `
module?: string
optimize?: int & >=0 & <=3
halt_on_fatal_only?: bool
generate_on_errors?: bool
`

// Loader reads settings lazily from an ordered list of files. Earlier
// files win.
type Loader struct {
	getRoots func() ([]cue.Value, error)
}

func NewLoader(filePaths []string) Loader {
	return Loader{
		getRoots: sync.OnceValues(func() (ret []cue.Value, err error) {
			ctx := cuecontext.New()
			sch := ctx.CompileString("close({" + schema + "})")
			if err := sch.Err(); err != nil {
				return nil, err
			}

			for _, filePath := range filePaths {
				content, err := os.ReadFile(filePath)
				if err != nil {
					if os.IsNotExist(err) {
						continue
					}
					return nil, err
				}
				value := ctx.CompileBytes(content, cue.Filename(filePath))
				if err := value.Err(); err != nil {
					return nil, err
				}
				if err := sch.Unify(value).Validate(); err != nil {
					return nil, fmt.Errorf("%s: %w", filePath, err)
				}
				ret = append(ret, value)
			}
			return
		}),
	}
}

// AssignFirst decodes the first file that defines path into target.
func (l Loader) AssignFirst(path string, target any) error {
	roots, err := l.getRoots()
	if err != nil {
		return err
	}
	cuePath := cue.ParsePath(path)
	for _, root := range roots {
		value := root.LookupPath(cuePath)
		if err := value.Err(); err == nil {
			return value.Decode(target)
		}
	}
	return ErrValueNotFound
}

// Apply overlays file settings onto base. Settings absent from every file
// leave the base value untouched.
func (l Loader) Apply(base compiler.Config) (compiler.Config, error) {
	cfg := base
	if err := l.assign("module", &cfg.ModuleName); err != nil {
		return base, err
	}
	if err := l.assign("optimize", &cfg.OptimizationLevel); err != nil {
		return base, err
	}
	if err := l.assign("halt_on_fatal_only", &cfg.HaltOnFatalOnly); err != nil {
		return base, err
	}
	if err := l.assign("generate_on_errors", &cfg.GenerateOnErrors); err != nil {
		return base, err
	}
	return cfg, nil
}

func (l Loader) assign(path string, target any) error {
	err := l.AssignFirst(path, target)
	if errors.Is(err, ErrValueNotFound) {
		return nil
	}
	return err
}
