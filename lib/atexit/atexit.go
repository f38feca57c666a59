// Package atexit provides handling for functions you want called when
// the program exits, for example to close log files.
package atexit

import (
	"sync"
)

var (
	fns   []func()
	mu    sync.Mutex
	ran   bool
	runMu sync.Mutex
)

// Register a function to be called on exit.
func Register(fn func()) {
	mu.Lock()
	fns = append(fns, fn)
	mu.Unlock()
}

// Run all the registered functions, in reverse order of registration.
//
// This is called by the command layer just before the process exits and
// only runs the functions once.
func Run() {
	runMu.Lock()
	defer runMu.Unlock()
	if ran {
		return
	}
	ran = true
	mu.Lock()
	defer mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
