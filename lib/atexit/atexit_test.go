package atexit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	mu.Lock()
	fns = nil
	mu.Unlock()
	runMu.Lock()
	ran = false
	runMu.Unlock()

	var order []int
	Register(func() { order = append(order, 1) })
	Register(func() { order = append(order, 2) })
	Register(func() { order = append(order, 3) })

	Run()
	assert.Equal(t, []int{3, 2, 1}, order)

	// A second call must not run the functions again.
	Run()
	assert.Equal(t, []int{3, 2, 1}, order)
}
