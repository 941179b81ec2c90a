// Package engine spawns child processes rooted at the sandbox directory and
// captures their output without deadlocking on full pipe buffers.
package engine

import (
	"context"
	"time"
)

// Config holds engine settings.
type Config struct {
	// WorkDir is the canonical sandbox root. Every child process starts
	// with this as its working directory.
	WorkDir string
	// Timeout bounds a single execution; zero means no deadline.
	Timeout time.Duration
	// MaxOutputBytes caps each captured stream. Excess bytes are drained
	// and discarded so the child never blocks on a full pipe.
	MaxOutputBytes int64
}

// Request describes one command execution.
type Request struct {
	// Command is the executable name, looked up via PATH unless it
	// contains a path separator.
	Command string
	// Args is the full argument vector including argv[0], passed through
	// verbatim. When empty, argv[0] defaults to Command.
	Args []string
	// Env is the caller-supplied environment mapping.
	Env map[string]string
	// Capture enables stdout/stderr collection.
	Capture bool
}

// Result captures one execution outcome. A non-zero ExitCode is data for the
// caller to interpret, never an error from this package.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Engine executes a Request inside the sandbox working directory.
type Engine interface {
	Run(ctx context.Context, req Request) (Result, error)
}
