// Package server exposes the sandbox over HTTP.
package server

import (
	"agentcell/internal/plugin"
	"agentcell/internal/sandbox"
	"agentcell/internal/sandbox/toolchain"
)

// ServiceContext bundles the shared collaborators handlers need.
type ServiceContext struct {
	Box      *sandbox.Sandbox
	Pipeline *toolchain.Pipeline
	Plugins  *plugin.Registry
}

// NewServiceContext wires the service context.
func NewServiceContext(box *sandbox.Sandbox, pipeline *toolchain.Pipeline, plugins *plugin.Registry) *ServiceContext {
	return &ServiceContext{
		Box:      box,
		Pipeline: pipeline,
		Plugins:  plugins,
	}
}
