package main

import (
	"fmt"
	"os"
	"time"

	"agentcell/internal/sandbox"
	"agentcell/internal/sandbox/toolchain"
	"agentcell/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20

	defaultSandboxRoot = "sandbox_root"
	defaultExecTimeout = 30 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// PluginConfig declares a plugin registered at startup.
type PluginConfig struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Active   bool              `yaml:"active"`
	Settings map[string]string `yaml:"settings"`
}

// AppConfig holds the service configuration.
type AppConfig struct {
	Server    ServerConfig   `yaml:"server"`
	Logger    logger.Config  `yaml:"logger"`
	Sandbox   sandbox.Config `yaml:"sandbox"`
	Toolchain toolchain.Spec `yaml:"toolchain"`
	Plugins   []PluginConfig `yaml:"plugins"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}

	if cfg.Sandbox.Root == "" {
		cfg.Sandbox.Root = defaultSandboxRoot
	}
	if cfg.Sandbox.ExecTimeout == 0 {
		cfg.Sandbox.ExecTimeout = defaultExecTimeout
	}

	for i, p := range cfg.Plugins {
		if p.Name == "" {
			return nil, fmt.Errorf("plugins[%d].name is required", i)
		}
	}

	return &cfg, nil
}
