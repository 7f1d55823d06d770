package compiler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Unit is one independent compilation unit of a project.
type Unit struct {
	Name   string
	Source string
}

// ExportedSymbol is one cross-module-visible entry of a unit.
type ExportedSymbol struct {
	Unit string
	Name string
	Kind SymbolKind
	Type *Type
}

// ProjectIndex is the shared symbol index for cross-module procedure and
// type visibility. It is read-mostly and write-once per unit: each unit
// publishes its exports exactly once, and publishing a unit twice is a
// caller bug.
type ProjectIndex struct {
	mu    sync.RWMutex
	units map[string][]ExportedSymbol
}

func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{units: map[string][]ExportedSymbol{}}
}

// Publish records a unit's module-scope symbols. It returns an error if the
// unit has already published.
func (ix *ProjectIndex) Publish(unit string, table *SymbolTable) error {
	var exports []ExportedSymbol
	for _, id := range table.ModuleSymbols() {
		sym := table.Sym(id)
		exports = append(exports, ExportedSymbol{
			Unit: unit,
			Name: sym.Name,
			Kind: sym.Kind,
			Type: sym.Type,
		})
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, dup := ix.units[unit]; dup {
		return fmt.Errorf("project index: unit %q published twice", unit)
	}
	ix.units[unit] = exports
	return nil
}

// Lookup finds a symbol by name across all published units,
// case-insensitively. The defining unit's own exports win over other units'
// when both match.
func (ix *ProjectIndex) Lookup(fromUnit, name string) (ExportedSymbol, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if hit, ok := findExport(ix.units[fromUnit], name); ok {
		return hit, true
	}
	for unit, exports := range ix.units {
		if unit == fromUnit {
			continue
		}
		if hit, ok := findExport(exports, name); ok {
			return hit, true
		}
	}
	return ExportedSymbol{}, false
}

// Units reports how many units have published.
func (ix *ProjectIndex) Units() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.units)
}

func findExport(exports []ExportedSymbol, name string) (ExportedSymbol, bool) {
	for _, e := range exports {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return ExportedSymbol{}, false
}

// CompileProject compiles independent units concurrently. Each unit runs
// the whole pipeline on its own goroutine; the project index is the only
// state the pipelines share. The first internal error cancels the rest.
func CompileProject(ctx context.Context, units []Unit, cfg Config, index *ProjectIndex) (map[string]Result, error) {
	if index == nil {
		index = NewProjectIndex()
	}
	results := make([]Result, len(units))

	g, ctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			unitCfg := cfg
			unitCfg.ModuleName = unit.Name
			res, err := Compile(unit.Source, unitCfg)
			if err != nil {
				return fmt.Errorf("unit %s: %w", unit.Name, err)
			}
			if err := index.Publish(unit.Name, res.Symbols); err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(units))
	for i, unit := range units {
		out[unit.Name] = results[i]
	}
	return out, nil
}
