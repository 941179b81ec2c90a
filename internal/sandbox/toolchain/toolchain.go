// Package toolchain sequences the assemble, link, and execute stages for
// agent-generated assembly source inside the sandbox.
package toolchain

import (
	"context"
	"strings"

	"agentcell/internal/sandbox/engine"
	appErr "agentcell/pkg/errors"

	"github.com/google/shlex"
)

// Stage names reported in pipeline results.
const (
	StageCompilation = "compilation"
	StageLinking     = "linking"
	StageExecution   = "execution"
)

// Spec holds the command template for each stage. The placeholders {src},
// {obj} and {bin} expand to the generated artifact names.
type Spec struct {
	AssembleCmd string `yaml:"assembleCmd"`
	LinkCmd     string `yaml:"linkCmd"`
	RunCmd      string `yaml:"runCmd"`
}

// DefaultSpec targets nasm and the gcc driver. The binary is linked non-PIE
// so it runs in place without relocation.
func DefaultSpec() Spec {
	return Spec{
		AssembleCmd: "nasm -f elf64 {src} -o {obj}",
		LinkCmd:     "gcc {obj} -o {bin} -no-pie",
		RunCmd:      "./{bin}",
	}
}

// StageResult is an execution result tagged with the stage that produced it.
type StageResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	Stage    string `json:"stage"`
}

// Workspace is the file surface the pipeline writes sources through.
type Workspace interface {
	WriteFile(virtualPath string, data []byte) error
}

// Executor runs one captured command inside the sandbox.
type Executor interface {
	Execute(ctx context.Context, command string, args []string, env map[string]string) (engine.Result, error)
}

// Pipeline drives the three-stage workflow over a sandbox.
type Pipeline struct {
	ws   Workspace
	exec Executor
	spec Spec
}

// NewPipeline creates a pipeline; empty template fields fall back to the
// default toolchain.
func NewPipeline(ws Workspace, exec Executor, spec Spec) *Pipeline {
	defaults := DefaultSpec()
	if spec.AssembleCmd == "" {
		spec.AssembleCmd = defaults.AssembleCmd
	}
	if spec.LinkCmd == "" {
		spec.LinkCmd = defaults.LinkCmd
	}
	if spec.RunCmd == "" {
		spec.RunCmd = defaults.RunCmd
	}
	return &Pipeline{ws: ws, exec: exec, spec: spec}
}

// AssembleLinkRun writes source to <baseName>.asm, assembles it into
// <baseName>.o, links the executable <baseName>, and runs it. The pipeline
// stops at the first failing stage and returns that stage's result; the
// execution stage's result is returned unconditionally, so a non-zero exit
// from the built program is reported as data rather than a failure.
func (p *Pipeline) AssembleLinkRun(ctx context.Context, source, baseName string) (StageResult, error) {
	if strings.TrimSpace(baseName) == "" {
		return StageResult{}, appErr.ValidationError("output_name", "required")
	}

	if err := p.ws.WriteFile(baseName+".asm", []byte(source)); err != nil {
		// A confinement denial keeps its own code; any other write
		// failure is reported as a pipeline-stage failure.
		if appErr.Is(err, appErr.PathEscape) {
			return StageResult{}, err
		}
		return StageResult{}, appErr.Wrap(err, appErr.ToolchainWriteFailed)
	}

	compileRes, err := p.runStage(ctx, p.spec.AssembleCmd, baseName, StageCompilation)
	if err != nil {
		return StageResult{}, err
	}
	if compileRes.ExitCode != 0 {
		return compileRes, nil
	}

	linkRes, err := p.runStage(ctx, p.spec.LinkCmd, baseName, StageLinking)
	if err != nil {
		return StageResult{}, err
	}
	if linkRes.ExitCode != 0 {
		return linkRes, nil
	}

	return p.runStage(ctx, p.spec.RunCmd, baseName, StageExecution)
}

func (p *Pipeline) runStage(ctx context.Context, tpl, baseName, stage string) (StageResult, error) {
	argv, err := buildCommand(tpl, baseName)
	if err != nil {
		return StageResult{}, err
	}
	res, err := p.exec.Execute(ctx, argv[0], argv, nil)
	if err != nil {
		return StageResult{}, err
	}
	return StageResult{
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
		Stage:    stage,
	}, nil
}

// buildCommand expands the artifact placeholders and splits the template
// shell-style.
func buildCommand(tpl, baseName string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.ToolchainSpecInvalid).WithMessage("command template is required")
	}
	expanded := strings.ReplaceAll(tpl, "{src}", baseName+".asm")
	expanded = strings.ReplaceAll(expanded, "{obj}", baseName+".o")
	expanded = strings.ReplaceAll(expanded, "{bin}", baseName)
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.ToolchainSpecInvalid, "parse command template failed: %v", err)
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.ToolchainSpecInvalid).WithMessage("command is empty after expansion")
	}
	return fields, nil
}
