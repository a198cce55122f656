// Package ident provides a hash-consed pool of interned identifier strings.
//
// Every identifier that flows through the pipeline — a variable name, a
// function name, a field name — is interned once into a process-wide-per-Pool
// table and thereafter referenced by its ID, never copied. Two calls to
// Pool.Intern with the same string return the same ID, so identifier equality
// degenerates to an integer comparison.
package ident

import "sync"

// ID is the address of an interned identifier. The zero value is never
// assigned by Intern and can be used as a sentinel for "no identifier".
type ID uint32

// Pool interns identifier strings for a single compilation pipeline.
//
// A Pool is guarded by a read-write mutex, so concurrent Intern and Text
// calls are safe. The pipeline is single-threaded, so each run creates one
// Pool.
type Pool struct {
	mu      sync.RWMutex
	byName  map[string]ID
	byID    []string
}

// NewPool creates an empty identifier pool.
func NewPool() *Pool {
	return &Pool{
		byName: make(map[string]ID, 256),
		byID:   make([]string, 0, 256),
	}
}

// Intern returns the stable ID for name, assigning a fresh one on first use.
func (p *Pool) Intern(name string) ID {
	p.mu.RLock()
	if id, ok := p.byName[name]; ok {
		p.mu.RUnlock()
		return id
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.byName[name]; ok {
		return id
	}
	id := ID(len(p.byID) + 1) // reserve 0 as "no identifier"
	p.byID = append(p.byID, name)
	p.byName[name] = id
	return id
}

// Text resolves an ID back to its string. The zero ID resolves to "". Any
// other ID that was never returned by Intern on this Pool panics — that is a
// bug in the caller, not a runtime condition callers should recover from.
func (p *Pool) Text(id ID) string {
	if id == 0 {
		return ""
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(p.byID) {
		panic("ident: ID not interned by this Pool")
	}
	return p.byID[idx]
}

// Len reports how many distinct identifiers have been interned.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}
