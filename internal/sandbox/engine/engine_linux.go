//go:build linux

package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	appErr "agentcell/pkg/errors"
	"agentcell/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const (
	// exitCommandNotFound mirrors the shell convention for a command that
	// cannot be located or executed.
	exitCommandNotFound = 127

	// exitAbnormal is the sentinel for a child that did not terminate
	// normally (killed by signal, deadline expired).
	exitAbnormal = -1

	defaultMaxOutputBytes int64 = 8 << 20
	readChunkSize               = 4096
)

type linuxEngine struct {
	cfg Config
}

// NewEngine creates a process execution engine rooted at cfg.WorkDir.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.WorkDir == "" {
		return nil, appErr.ValidationError("work_dir", "required")
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &linuxEngine{cfg: cfg}, nil
}

func (e *linuxEngine) Run(ctx context.Context, req Request) (Result, error) {
	if req.Command == "" {
		return Result{}, appErr.ValidationError("command", "required")
	}
	argv := req.Args
	if len(argv) == 0 {
		argv = []string{req.Command}
	}

	// Lookup must honor the environment the child will actually see: an
	// explicit request PATH replaces the host PATH for the search too.
	hostPath := os.Getenv(pathVar)
	searchPath := hostPath
	if p, ok := req.Env[pathVar]; ok {
		searchPath = p
	}

	binPath, lookErr := e.lookupCommand(req.Command, searchPath)
	if lookErr != nil {
		// The reference semantics: a child whose exec fails terminates
		// with the reserved 127 status. Surface that as data, not error.
		res := Result{ExitCode: exitCommandNotFound}
		if req.Capture {
			res.Stderr = "exec failed: " + req.Command + "\n"
		}
		return res, nil
	}

	cmd := &exec.Cmd{
		Path: binPath,
		Args: argv,
		Dir:  e.cfg.WorkDir,
		Env:  BuildEnv(req.Env, hostPath),
		// Detach into a fresh session so the child is decoupled from the
		// caller's controlling terminal and its whole group is killable.
		SysProcAttr: &syscall.SysProcAttr{Setsid: true},
	}

	var outRead, outWrite, errRead, errWrite *os.File
	if req.Capture {
		var err error
		outRead, outWrite, err = os.Pipe()
		if err != nil {
			return Result{}, appErr.Wrapf(err, appErr.SpawnFailure, "create stdout pipe failed")
		}
		errRead, errWrite, err = os.Pipe()
		if err != nil {
			closeFiles(outRead, outWrite)
			return Result{}, appErr.Wrapf(err, appErr.SpawnFailure, "create stderr pipe failed")
		}
		cmd.Stdout = outWrite
		cmd.Stderr = errWrite
	}

	logger.Debug(ctx, "spawning command",
		zap.String("command", req.Command),
		zap.Strings("args", argv),
		zap.String("work_dir", e.cfg.WorkDir),
		zap.Bool("capture", req.Capture),
	)

	if err := cmd.Start(); err != nil {
		closeFiles(outRead, outWrite, errRead, errWrite)
		return Result{}, appErr.Wrapf(err, appErr.SpawnFailure, "spawn %s failed", req.Command)
	}

	// The child holds duplicates of the write ends; drop ours immediately
	// so EOF on the read ends tracks child termination.
	closeFiles(outWrite, errWrite)

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		var timer <-chan time.Time
		if e.cfg.Timeout > 0 {
			timer = time.After(e.cfg.Timeout)
		}
		select {
		case <-ctx.Done():
			killProcessGroup(cmd.Process.Pid)
		case <-timer:
			timedOut.Store(true)
			killProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	var stdout, stderr bytes.Buffer
	var drainErr error
	if req.Capture {
		drainErr = drainOutputs(outRead, errRead, &stdout, &stderr, e.cfg.MaxOutputBytes)
		closeFiles(outRead, errRead)
	}

	waitErr := cmd.Wait()
	close(done)

	if drainErr != nil {
		logger.Warn(ctx, "output drain interrupted", zap.Error(drainErr))
	}

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCodeFromState(cmd.ProcessState, waitErr),
	}
	if timedOut.Load() && res.ExitCode == 0 {
		res.ExitCode = exitAbnormal
	}

	logger.Debug(ctx, "command finished",
		zap.String("command", req.Command),
		zap.Int("exit_code", res.ExitCode),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Int("stderr_bytes", stderr.Len()),
	)
	return res, nil
}

// lookupCommand resolves the executable the way execvpe would after chdir to
// the sandbox root: names with a separator resolve against the work dir,
// bare names by searching the child's effective PATH.
func (e *linuxEngine) lookupCommand(command, searchPath string) (string, error) {
	if strings.Contains(command, "/") {
		p := command
		if !filepath.IsAbs(p) {
			p = filepath.Join(e.cfg.WorkDir, p)
		}
		if err := checkExecutable(p); err != nil {
			return "", err
		}
		return p, nil
	}
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			// An empty PATH entry means the current directory, which
			// for the child is the sandbox root.
			dir = e.cfg.WorkDir
		}
		p := filepath.Join(dir, command)
		if !filepath.IsAbs(p) {
			p = filepath.Join(e.cfg.WorkDir, p)
		}
		if err := checkExecutable(p); err == nil {
			return p, nil
		}
	}
	return "", unix.ENOENT
}

func checkExecutable(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return unix.EACCES
	}
	return unix.Access(p, unix.X_OK)
}

// drainOutputs multiplexes both pipe read ends with poll(2) so a child
// filling one stream can never deadlock against a reader busy on the other.
// The loop ends when both streams report EOF or an unrecoverable condition.
func drainOutputs(outRead, errRead *os.File, stdout, stderr *bytes.Buffer, maxBytes int64) error {
	rawFds := [2]int{int(outRead.Fd()), int(errRead.Fd())}
	sinks := [2]*bytes.Buffer{stdout, stderr}
	open := [2]bool{true, true}

	fds := []unix.PollFd{
		{Fd: int32(rawFds[0]), Events: unix.POLLIN},
		{Fd: int32(rawFds[1]), Events: unix.POLLIN},
	}
	buf := make([]byte, readChunkSize)

	for open[0] || open[1] {
		for i := range fds {
			fds[i].Revents = 0
		}
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return appErr.Wrap(err, appErr.OutputDrainFailed)
		}

		for i := range fds {
			if !open[i] {
				continue
			}
			revents := fds[i].Revents
			switch {
			case revents&unix.POLLIN != 0:
				n, err := readRetry(rawFds[i], buf)
				if n > 0 {
					appendCapped(sinks[i], buf[:n], maxBytes)
				}
				if n == 0 || (err != nil && err != unix.EINTR) {
					open[i] = false
					fds[i].Fd = -1
				}
			case revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0:
				open[i] = false
				fds[i].Fd = -1
			}
		}
	}
	return nil
}

// readRetry reads from fd, retrying transient signal interruptions.
func readRetry(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// appendCapped bounds accumulator memory without stalling the pipe: bytes
// past the cap are read and discarded.
func appendCapped(sink *bytes.Buffer, chunk []byte, maxBytes int64) {
	remaining := maxBytes - int64(sink.Len())
	if remaining <= 0 {
		return
	}
	if int64(len(chunk)) > remaining {
		chunk = chunk[:remaining]
	}
	sink.Write(chunk)
}

func exitCodeFromState(state *os.ProcessState, waitErr error) int {
	if state != nil {
		// ExitCode reports -1 when the child was killed by a signal.
		return state.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return exitAbnormal
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Setsid made the child a group leader, so its pgid equals its pid.
	_ = unix.Kill(-pid, unix.SIGKILL)
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
