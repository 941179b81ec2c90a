//go:build !linux

package engine

import (
	"context"

	appErr "agentcell/pkg/errors"
)

type stubEngine struct{}

// NewEngine returns a stub engine on unsupported platforms.
func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Run(ctx context.Context, req Request) (Result, error) {
	return Result{}, appErr.New(appErr.EngineUnavailable).WithMessage("process engine is only supported on linux")
}
