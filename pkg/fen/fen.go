// Package fen is the embedding facade for the toolchain: a small Engine type
// wrapping the parse → lower → check → emit → execute pipeline behind a
// functional-options constructor, so a host program can run Fen source
// without touching internal/ directly.
package fen

import (
	"os"

	"github.com/fenlang/fen/internal/check"
	"github.com/fenlang/fen/internal/codegen"
	"github.com/fenlang/fen/internal/config"
	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/stdlib"
	"github.com/fenlang/fen/internal/types"
	"github.com/fenlang/fen/internal/vm"
)

// Engine compiles and runs Fen source. The zero value is not usable; build
// one with New.
type Engine struct {
	cfg     *config.Config
	externs map[string]vm.ExternFunc
	load    hir.StdlibLoader
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithConfig overrides the VM resource limits the Engine applies (Default()
// otherwise). The config's StdlibPath is not consulted; libraries always
// come from stdlib.Load unless replaced.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithExterns replaces the Engine's extern dispatch table. Callers embedding
// Fen with their own host functions can start from stdlib.Externs() and add
// to it, registering functions ahead of time rather than reflectively at
// call time.
func WithExterns(externs map[string]vm.ExternFunc) Option {
	return func(e *Engine) { e.externs = externs }
}

// New builds an Engine with stdlib.Externs()/stdlib.Load and config.Default()
// unless overridden by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:     config.Default(),
		externs: stdlib.Externs(),
		load:    stdlib.Load,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compiled is the result of compiling a source file: the emitted program
// plus the arena and identifier pool it was built against (both must outlive
// the program for disassembly or re-inspection).
type Compiled struct {
	Program *codegen.Program
	Arena   *types.Arena
	Idents  *ident.Pool
}

// Compile runs parse → lower → check → emit over src, without executing it.
// file is used only for diagnostic spans; pass "" for anonymous/inline
// source.
func (e *Engine) Compile(file, src string) (*Compiled, error) {
	prog, err := parser.Parse(src, file)
	if err != nil {
		return nil, err
	}

	arena := types.NewArena()
	idents := ident.NewPool()
	source := &diag.Source{File: file, Text: src}

	mod, err := hir.Lower(prog, source, arena, idents, e.load)
	if err != nil {
		return nil, err
	}

	if err := check.Check(mod, arena, idents, source); err != nil {
		return nil, err
	}

	program, err := codegen.Emit(mod, arena, idents)
	if err != nil {
		return nil, err
	}

	return &Compiled{Program: program, Arena: arena, Idents: idents}, nil
}

// Run compiles src and executes it to completion, returning the VM that ran
// it (so the caller can vm.Format the result) alongside the raw Value.
func (e *Engine) Run(file, src string) (*vm.VM, vm.Value, error) {
	compiled, err := e.Compile(file, src)
	if err != nil {
		return nil, vm.Value{}, err
	}
	return e.RunCompiled(compiled)
}

// RunCompiled executes an already-compiled program, applying the Engine's
// configured resource limits.
func (e *Engine) RunCompiled(compiled *Compiled) (*vm.VM, vm.Value, error) {
	m, err := vm.NewVM(compiled.Program, e.externs)
	if err != nil {
		return nil, vm.Value{}, err
	}
	m.SetLimits(e.cfg.MaxOperandStack, e.cfg.MaxCallDepth)

	result, err := m.Run()
	if err != nil {
		return m, vm.Value{}, err
	}
	return m, result, nil
}

// RunFile reads path from disk and runs it.
func (e *Engine) RunFile(path string) (*vm.VM, vm.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, vm.Value{}, err
	}
	return e.Run(path, string(src))
}
