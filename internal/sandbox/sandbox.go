// Package sandbox confines an agent's file and process operations to a
// single directory tree. Confinement is lexical: virtual paths are resolved
// against the canonical root and rejected when they climb out of it, and
// every spawned process starts with the root as its working directory.
package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentcell/internal/sandbox/engine"
	appErr "agentcell/pkg/errors"
)

// Config holds sandbox settings.
type Config struct {
	Root           string        `yaml:"root"`
	ExecTimeout    time.Duration `yaml:"execTimeout"`
	MaxOutputBytes int64         `yaml:"maxOutputBytes"`
}

// Sandbox is the confined execution environment. The root is established
// once at construction and never mutated.
type Sandbox struct {
	root string
	eng  engine.Engine
}

// New creates the root directory if absent, canonicalizes it, and builds the
// execution engine rooted there.
func New(cfg Config) (*Sandbox, error) {
	if cfg.Root == "" {
		return nil, appErr.New(appErr.SandboxInit).WithMessage("sandbox root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.SandboxInit, "create sandbox root failed: %v", err)
	}
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SandboxInit, "resolve sandbox root failed: %v", err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SandboxInit, "canonicalize sandbox root failed: %v", err)
	}

	eng, err := engine.NewEngine(engine.Config{
		WorkDir:        root,
		Timeout:        cfg.ExecTimeout,
		MaxOutputBytes: cfg.MaxOutputBytes,
	})
	if err != nil {
		return nil, err
	}
	return &Sandbox{root: root, eng: eng}, nil
}

// Root returns the canonical sandbox root.
func (s *Sandbox) Root() string {
	return s.root
}

// ResolvePath maps an agent-visible virtual path onto an absolute host path
// guaranteed to stay inside the sandbox root. Normalization is purely
// lexical, so intermediate components need not exist yet.
func (s *Sandbox) ResolvePath(virtualPath string) (string, error) {
	// A leading separator means "sandbox root", never the host root.
	trimmed := strings.TrimPrefix(virtualPath, "/")

	// Join cleans the result lexically: "." and ".." segments resolve by
	// string manipulation without touching the filesystem.
	resolved := filepath.Join(s.root, trimmed)

	// Containment must compare path components. A raw string-prefix test
	// would accept a sibling directory such as <root>_evil.
	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(os.PathSeparator)) {
		return "", appErr.EscapeError(virtualPath)
	}
	return resolved, nil
}

// WriteFile writes data to a virtual path, creating parent directories.
func (s *Sandbox) WriteFile(virtualPath string, data []byte) error {
	target, err := s.ResolvePath(virtualPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return appErr.Wrapf(err, appErr.FileWriteFailed, "create parent dir for %s failed: %v", virtualPath, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return appErr.Wrapf(err, appErr.FileWriteFailed, "write %s failed: %v", virtualPath, err)
	}
	return nil
}

// AppendFile appends data to a virtual path, creating the file if absent.
func (s *Sandbox) AppendFile(virtualPath string, data []byte) error {
	target, err := s.ResolvePath(virtualPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return appErr.Wrapf(err, appErr.FileWriteFailed, "create parent dir for %s failed: %v", virtualPath, err)
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return appErr.Wrapf(err, appErr.FileWriteFailed, "open %s failed: %v", virtualPath, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return appErr.Wrapf(err, appErr.FileWriteFailed, "append %s failed: %v", virtualPath, err)
	}
	return nil
}

// ReadFile reads the contents of a virtual path.
func (s *Sandbox) ReadFile(virtualPath string) ([]byte, error) {
	target, err := s.ResolvePath(virtualPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.FileReadFailed, "read %s failed: %v", virtualPath, err)
	}
	return data, nil
}

// ListDir returns the entry names under a virtual directory path, sorted.
func (s *Sandbox) ListDir(virtualPath string) ([]string, error) {
	target, err := s.ResolvePath(virtualPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.FileListFailed, "list %s failed: %v", virtualPath, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// Remove deletes a virtual path recursively. The root itself is refused.
func (s *Sandbox) Remove(virtualPath string) error {
	target, err := s.ResolvePath(virtualPath)
	if err != nil {
		return err
	}
	if target == s.root {
		return appErr.New(appErr.FileRemoveError).WithMessage("refusing to remove sandbox root")
	}
	if err := os.RemoveAll(target); err != nil {
		return appErr.Wrapf(err, appErr.FileRemoveError, "remove %s failed: %v", virtualPath, err)
	}
	return nil
}

// Execute runs a command inside the sandbox with output captured. A non-zero
// exit code is reported in the result, not as an error.
func (s *Sandbox) Execute(ctx context.Context, command string, args []string, env map[string]string) (engine.Result, error) {
	return s.eng.Run(ctx, engine.Request{
		Command: command,
		Args:    argvOrDefault(command, args),
		Env:     env,
		Capture: true,
	})
}

// ExecuteDetached runs a command without capturing output. The child's exit
// status is deliberately ignored (fire-and-forget mode); only spawn failures
// are reported.
func (s *Sandbox) ExecuteDetached(ctx context.Context, command string, args []string, env map[string]string) error {
	_, err := s.eng.Run(ctx, engine.Request{
		Command: command,
		Args:    argvOrDefault(command, args),
		Env:     env,
		Capture: false,
	})
	return err
}

func argvOrDefault(command string, args []string) []string {
	if len(args) == 0 {
		return []string{command}
	}
	return args
}
