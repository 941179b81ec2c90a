package command_test

import (
	"encoding/json"
	"strings"
	"testing"

	"agentcell/internal/cli/command"
)

func TestRegistryKeys(t *testing.T) {
	commands := command.Registry()
	for _, key := range []string{
		"exec run",
		"toolchain run",
		"path resolve",
		"file write",
		"file cat",
		"file ls",
		"file rm",
		"plugin register",
		"plugin list",
		"plugin get",
		"plugin enable",
		"plugin disable",
		"plugin set",
		"plugin setting",
		"health check",
	} {
		if _, ok := commands[key]; !ok {
			t.Fatalf("expected command %q registered", key)
		}
	}
}

func TestBuildExecuteRequest(t *testing.T) {
	commands := command.Registry()
	cmd := commands["exec run"]
	params := command.Params{}
	params.Set("command", "/bin/echo")
	params.Set("args", "/bin/echo,hello")
	params.Set("detached", "true")

	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if req.Method != "POST" || req.Path != "/api/v1/execute" {
		t.Fatalf("unexpected request: %+v", req)
	}
	var payload struct {
		Command  string   `json:"command"`
		Args     []string `json:"args"`
		Detached bool     `json:"detached"`
	}
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Command != "/bin/echo" || len(payload.Args) != 2 || !payload.Detached {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBuildQueryRequest(t *testing.T) {
	commands := command.Registry()
	cmd := commands["file cat"]
	params := command.Params{}
	params.Set("path", "/notes.txt")

	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if req.Method != "GET" {
		t.Fatalf("expected GET, got %s", req.Method)
	}
	if !strings.HasPrefix(req.Path, "/api/v1/files?") || !strings.Contains(req.Path, "path=%2Fnotes.txt") {
		t.Fatalf("unexpected path: %s", req.Path)
	}
	if len(req.Body) != 0 {
		t.Fatalf("expected no body for GET, got %s", req.Body)
	}
}

func TestBuildPluginPathRequest(t *testing.T) {
	commands := command.Registry()
	cmd := commands["plugin setting"]
	params := command.Params{}
	params.Set("name", "tracer")
	params.Set("key", "level")

	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if req.Path != "/api/v1/plugins/tracer/settings/level" {
		t.Fatalf("unexpected path: %s", req.Path)
	}
}

func TestBuildPluginPathMissingParam(t *testing.T) {
	commands := command.Registry()
	cmd := commands["plugin get"]
	_, err := command.BuildRequest(cmd, command.Params{})
	if err == nil {
		t.Fatal("expected error for missing path parameter")
	}
}

func TestBuildEnableDisablePayload(t *testing.T) {
	commands := command.Registry()
	params := command.Params{}
	params.Set("name", "tracer")

	req, err := command.BuildRequest(commands["plugin enable"], params)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if string(req.Body) != `{"active":true}` {
		t.Fatalf("unexpected enable body: %s", req.Body)
	}

	req, err = command.BuildRequest(commands["plugin disable"], params)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if string(req.Body) != `{"active":false}` {
		t.Fatalf("unexpected disable body: %s", req.Body)
	}
}

func TestParamAliases(t *testing.T) {
	commands := command.Registry()
	cmd := commands["exec run"]
	params := command.Params{}
	params.Set("cmd", "/bin/true")

	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	var payload struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Command != "/bin/true" {
		t.Fatalf("expected alias canonicalized, got %+v", payload)
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "yes", "1", "on"} {
		if !command.ParseBool(v) {
			t.Fatalf("expected %q to parse true", v)
		}
	}
	for _, v := range []string{"false", "no", "0", "", "maybe"} {
		if command.ParseBool(v) {
			t.Fatalf("expected %q to parse false", v)
		}
	}
}

func TestBuildToolchainRequestInvalidEnv(t *testing.T) {
	commands := command.Registry()
	cmd := commands["exec run"]
	params := command.Params{}
	params.Set("command", "/bin/true")
	params.Set("env", "not-json")

	if _, err := command.BuildRequest(cmd, params); err == nil {
		t.Fatal("expected error for invalid env json")
	}
}
