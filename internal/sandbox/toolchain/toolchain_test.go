package toolchain_test

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"agentcell/internal/sandbox"
	"agentcell/internal/sandbox/engine"
	"agentcell/internal/sandbox/toolchain"
	appErr "agentcell/pkg/errors"
)

type fakeWorkspace struct {
	writes map[string][]byte
	err    error
}

func (f *fakeWorkspace) WriteFile(virtualPath string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.writes == nil {
		f.writes = make(map[string][]byte)
	}
	f.writes[virtualPath] = data
	return nil
}

type fakeExecutor struct {
	results []engine.Result
	errs    []error
	argvs   [][]string
}

func (f *fakeExecutor) Execute(ctx context.Context, command string, args []string, env map[string]string) (engine.Result, error) {
	f.argvs = append(f.argvs, args)
	idx := len(f.argvs) - 1
	var res engine.Result
	if idx < len(f.results) {
		res = f.results[idx]
	}
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return res, err
}

func TestPipelineAllStagesSucceed(t *testing.T) {
	ws := &fakeWorkspace{}
	exec := &fakeExecutor{
		results: []engine.Result{
			{ExitCode: 0},
			{ExitCode: 0},
			{Stdout: "42\n", ExitCode: 0},
		},
	}
	p := toolchain.NewPipeline(ws, exec, toolchain.Spec{})
	res, err := p.AssembleLinkRun(context.Background(), "section .text", "demo")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stage != toolchain.StageExecution {
		t.Fatalf("expected execution stage, got %q", res.Stage)
	}
	if res.Stdout != "42\n" || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if string(ws.writes["demo.asm"]) != "section .text" {
		t.Fatalf("expected source written to demo.asm, got %v", ws.writes)
	}
	if len(exec.argvs) != 3 {
		t.Fatalf("expected 3 stage executions, got %d", len(exec.argvs))
	}
}

func TestPipelineTemplateExpansion(t *testing.T) {
	ws := &fakeWorkspace{}
	exec := &fakeExecutor{
		results: []engine.Result{{}, {}, {}},
	}
	p := toolchain.NewPipeline(ws, exec, toolchain.Spec{})
	if _, err := p.AssembleLinkRun(context.Background(), "x", "demo"); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	want := [][]string{
		{"nasm", "-f", "elf64", "demo.asm", "-o", "demo.o"},
		{"gcc", "demo.o", "-o", "demo", "-no-pie"},
		{"./demo"},
	}
	for i, argv := range want {
		got := exec.argvs[i]
		if strings.Join(got, " ") != strings.Join(argv, " ") {
			t.Fatalf("stage %d: expected argv %v, got %v", i, argv, got)
		}
	}
}

func TestPipelineStopsOnAssembleFailure(t *testing.T) {
	ws := &fakeWorkspace{}
	exec := &fakeExecutor{
		results: []engine.Result{
			{Stderr: "demo.asm:1: error\n", ExitCode: 1},
		},
	}
	p := toolchain.NewPipeline(ws, exec, toolchain.Spec{})
	res, err := p.AssembleLinkRun(context.Background(), "bad", "demo")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stage != toolchain.StageCompilation {
		t.Fatalf("expected compilation stage, got %q", res.Stage)
	}
	if res.ExitCode != 1 || res.Stderr == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(exec.argvs) != 1 {
		t.Fatalf("expected pipeline to stop after first stage, ran %d", len(exec.argvs))
	}
}

func TestPipelineStopsOnLinkFailure(t *testing.T) {
	ws := &fakeWorkspace{}
	exec := &fakeExecutor{
		results: []engine.Result{
			{ExitCode: 0},
			{Stderr: "undefined reference\n", ExitCode: 1},
		},
	}
	p := toolchain.NewPipeline(ws, exec, toolchain.Spec{})
	res, err := p.AssembleLinkRun(context.Background(), "x", "demo")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stage != toolchain.StageLinking {
		t.Fatalf("expected linking stage, got %q", res.Stage)
	}
	if len(exec.argvs) != 2 {
		t.Fatalf("expected pipeline to stop after linking, ran %d", len(exec.argvs))
	}
}

// A non-zero exit from the built program is still the execution stage's data.
func TestPipelineReportsProgramExitCode(t *testing.T) {
	ws := &fakeWorkspace{}
	exec := &fakeExecutor{
		results: []engine.Result{
			{ExitCode: 0},
			{ExitCode: 0},
			{ExitCode: 42},
		},
	}
	p := toolchain.NewPipeline(ws, exec, toolchain.Spec{})
	res, err := p.AssembleLinkRun(context.Background(), "x", "demo")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stage != toolchain.StageExecution || res.ExitCode != 42 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPipelineEmptyBaseName(t *testing.T) {
	p := toolchain.NewPipeline(&fakeWorkspace{}, &fakeExecutor{}, toolchain.Spec{})
	_, err := p.AssembleLinkRun(context.Background(), "x", "  ")
	if err == nil {
		t.Fatal("expected validation error for empty base name")
	}
}

func TestPipelinePropagatesEscapeError(t *testing.T) {
	ws := &fakeWorkspace{err: appErr.EscapeError("/../demo.asm")}
	p := toolchain.NewPipeline(ws, &fakeExecutor{}, toolchain.Spec{})
	_, err := p.AssembleLinkRun(context.Background(), "x", "demo")
	if appErr.GetCode(err) != appErr.PathEscape {
		t.Fatalf("expected PathEscape code preserved, got %d", appErr.GetCode(err))
	}
}

func TestPipelineWrapsWriteFailure(t *testing.T) {
	ws := &fakeWorkspace{err: appErr.New(appErr.FileWriteFailed).WithMessage("disk full")}
	p := toolchain.NewPipeline(ws, &fakeExecutor{}, toolchain.Spec{})
	_, err := p.AssembleLinkRun(context.Background(), "x", "demo")
	if appErr.GetCode(err) != appErr.ToolchainWriteFailed {
		t.Fatalf("expected ToolchainWriteFailed code, got %d", appErr.GetCode(err))
	}
}

func TestPipelineInvalidTemplate(t *testing.T) {
	ws := &fakeWorkspace{}
	p := toolchain.NewPipeline(ws, &fakeExecutor{}, toolchain.Spec{
		AssembleCmd: "nasm 'unterminated {src}",
	})
	_, err := p.AssembleLinkRun(context.Background(), "x", "demo")
	if appErr.GetCode(err) != appErr.ToolchainSpecInvalid {
		t.Fatalf("expected ToolchainSpecInvalid code, got %d", appErr.GetCode(err))
	}
}

// Integration: drive the pipeline against a real sandbox with shell stand-ins
// for the assembler and linker, so the flow is covered without nasm installed.
func TestPipelineAgainstSandbox(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process execution requires linux")
	}
	box, err := sandbox.New(sandbox.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	p := toolchain.NewPipeline(box, box, toolchain.Spec{
		AssembleCmd: "cp {src} {obj}",
		LinkCmd:     "install -m 755 {obj} {bin}",
		RunCmd:      "./{bin}",
	})
	res, err := p.AssembleLinkRun(context.Background(), "#!/bin/sh\necho built\nexit 7\n", "prog")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stage != toolchain.StageExecution {
		t.Fatalf("expected execution stage, got %q (stderr=%q)", res.Stage, res.Stderr)
	}
	if res.Stdout != "built\n" || res.ExitCode != 7 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPipelineAgainstSandboxAssembleFailure(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process execution requires linux")
	}
	box, err := sandbox.New(sandbox.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	p := toolchain.NewPipeline(box, box, toolchain.Spec{
		AssembleCmd: "sh -c \"echo 'syntax error' >&2; exit 1\"",
		LinkCmd:     "install -m 755 {obj} {bin}",
		RunCmd:      "./{bin}",
	})
	res, err := p.AssembleLinkRun(context.Background(), "bad", "prog")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stage != toolchain.StageCompilation {
		t.Fatalf("expected compilation stage, got %q", res.Stage)
	}
	if res.ExitCode == 0 || !strings.Contains(res.Stderr, "syntax error") {
		t.Fatalf("unexpected result: %+v", res)
	}
	// No binary may be produced by a failed stage.
	if _, err := box.ReadFile("/prog"); err == nil {
		t.Fatal("expected no binary artifact after assemble failure")
	}
}
