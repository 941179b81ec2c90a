package command

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Registry returns all CLI commands keyed by "group action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Group:        "exec",
			Action:       "run",
			Method:       "POST",
			PathTemplate: "/api/v1/execute",
			Fields: []Field{
				{Name: "command", Aliases: []string{"cmd"}, Prompt: "command", Type: FieldString, Required: true},
				{Name: "args", Prompt: "args (comma-separated)", Type: FieldStringList, Required: false},
				{Name: "env", Prompt: "env (JSON object)", Type: FieldJSON, Required: false},
				{Name: "detached", Prompt: "detached", Type: FieldBool, Required: false},
			},
		},
		{
			Group:        "toolchain",
			Action:       "run",
			Method:       "POST",
			PathTemplate: "/api/v1/toolchain/run",
			Fields: []Field{
				{Name: "output_name", Aliases: []string{"name"}, Prompt: "output_name", Type: FieldString, Required: true},
				{Name: "source", Prompt: "source", Type: FieldString, Required: true},
				{Name: "source_file", Prompt: "source_file", Type: FieldFile, Required: false},
			},
		},
		{
			Group:        "path",
			Action:       "resolve",
			Method:       "GET",
			PathTemplate: "/api/v1/resolve",
			Fields: []Field{
				{Name: "path", Prompt: "path", Type: FieldString, Required: true, Query: true},
			},
		},
		{
			Group:        "file",
			Action:       "write",
			Method:       "POST",
			PathTemplate: "/api/v1/files",
			Fields: []Field{
				{Name: "path", Prompt: "path", Type: FieldString, Required: true},
				{Name: "content", Prompt: "content", Type: FieldString, Required: true},
				{Name: "content_file", Prompt: "content_file", Type: FieldFile, Required: false},
				{Name: "append", Prompt: "append", Type: FieldBool, Required: false},
			},
		},
		{
			Group:        "file",
			Action:       "cat",
			Method:       "GET",
			PathTemplate: "/api/v1/files",
			Fields: []Field{
				{Name: "path", Prompt: "path", Type: FieldString, Required: true, Query: true},
			},
		},
		{
			Group:        "file",
			Action:       "ls",
			Method:       "GET",
			PathTemplate: "/api/v1/files/list",
			Fields: []Field{
				{Name: "path", Prompt: "path", Type: FieldString, Required: false, Query: true},
			},
		},
		{
			Group:        "file",
			Action:       "rm",
			Method:       "DELETE",
			PathTemplate: "/api/v1/files",
			Fields: []Field{
				{Name: "path", Prompt: "path", Type: FieldString, Required: true, Query: true},
			},
		},
		{
			Group:        "plugin",
			Action:       "register",
			Method:       "POST",
			PathTemplate: "/api/v1/plugins",
			Fields: []Field{
				{Name: "name", Prompt: "name", Type: FieldString, Required: true},
				{Name: "type", Prompt: "type", Type: FieldString, Required: true},
				{Name: "active", Prompt: "active", Type: FieldBool, Required: false},
			},
		},
		{
			Group:        "plugin",
			Action:       "list",
			Method:       "GET",
			PathTemplate: "/api/v1/plugins",
			Fields: []Field{
				{Name: "active", Prompt: "active", Type: FieldBool, Required: false, Query: true},
			},
		},
		{
			Group:        "plugin",
			Action:       "get",
			Method:       "GET",
			PathTemplate: "/api/v1/plugins/:name",
			Fields: []Field{
				{Name: "name", Prompt: "name", Type: FieldString, Required: true},
			},
		},
		{
			Group:        "plugin",
			Action:       "enable",
			Method:       "PUT",
			PathTemplate: "/api/v1/plugins/:name/active",
			Fields: []Field{
				{Name: "name", Prompt: "name", Type: FieldString, Required: true},
			},
		},
		{
			Group:        "plugin",
			Action:       "disable",
			Method:       "PUT",
			PathTemplate: "/api/v1/plugins/:name/active",
			Fields: []Field{
				{Name: "name", Prompt: "name", Type: FieldString, Required: true},
			},
		},
		{
			Group:        "plugin",
			Action:       "set",
			Method:       "PUT",
			PathTemplate: "/api/v1/plugins/:name/settings",
			Fields: []Field{
				{Name: "name", Prompt: "name", Type: FieldString, Required: true},
				{Name: "key", Prompt: "key", Type: FieldString, Required: true},
				{Name: "value", Prompt: "value", Type: FieldString, Required: false},
			},
		},
		{
			Group:        "plugin",
			Action:       "setting",
			Method:       "GET",
			PathTemplate: "/api/v1/plugins/:name/settings/:key",
			Fields: []Field{
				{Name: "name", Prompt: "name", Type: FieldString, Required: true},
				{Name: "key", Prompt: "key", Type: FieldString, Required: true},
			},
		},
		{
			Group:        "health",
			Action:       "check",
			Method:       "GET",
			PathTemplate: "/healthz",
			Fields:       []Field{},
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		key := fmt.Sprintf("%s %s", cmd.Group, cmd.Action)
		result[key] = cmd
	}
	return result
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}
	path = appendQuery(path, cmd, params)

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		if payload != nil {
			body, err = json.Marshal(payload)
			if err != nil {
				return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
			}
		}
	}

	return RequestSpec{
		Method:  cmd.Method,
		Path:    path,
		Headers: map[string]string{},
		Body:    body,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	path := template
	for _, key := range []string{"name", "key"} {
		placeholder := ":" + key
		if strings.Contains(path, placeholder) {
			value := params.Get(key)
			if value == "" {
				return "", fmt.Errorf("missing path parameter: %s", key)
			}
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(value))
		}
	}
	return path, nil
}

func appendQuery(path string, cmd Command, params Params) string {
	values := url.Values{}
	for _, field := range cmd.Fields {
		if !field.Query {
			continue
		}
		if value := params.Get(field.Name); value != "" {
			values.Set(field.Name, value)
		}
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	switch cmd.Group {
	case "exec":
		payload := map[string]interface{}{
			"command": params.Get("command"),
		}
		if params.Get("args") != "" {
			payload["args"] = ParseStringList(params.Get("args"))
		}
		if params.Get("env") != "" {
			env, err := ParseJSON(params.Get("env"))
			if err != nil {
				return nil, fmt.Errorf("invalid env: %w", err)
			}
			payload["env"] = json.RawMessage(env)
		}
		if params.Get("detached") != "" {
			payload["detached"] = ParseBool(params.Get("detached"))
		}
		return payload, nil
	case "toolchain":
		source := params.Get("source")
		if (source == "" || source == "_file_") && params.Get("source_file") != "" {
			data, err := ReadFile(params.Get("source_file"))
			if err != nil {
				return nil, err
			}
			source = data
		}
		if source == "" {
			return nil, fmt.Errorf("source is required")
		}
		return map[string]interface{}{
			"source":      source,
			"output_name": params.Get("output_name"),
		}, nil
	case "file":
		if cmd.Action != "write" {
			return nil, nil
		}
		content := params.Get("content")
		if (content == "" || content == "_file_") && params.Get("content_file") != "" {
			data, err := ReadFile(params.Get("content_file"))
			if err != nil {
				return nil, err
			}
			content = data
		}
		return map[string]interface{}{
			"path":    params.Get("path"),
			"content": content,
			"append":  ParseBool(params.Get("append")),
		}, nil
	case "plugin":
		switch cmd.Action {
		case "register":
			return map[string]interface{}{
				"name":   params.Get("name"),
				"type":   params.Get("type"),
				"active": ParseBool(params.Get("active")),
			}, nil
		case "enable":
			return map[string]interface{}{"active": true}, nil
		case "disable":
			return map[string]interface{}{"active": false}, nil
		case "set":
			return map[string]interface{}{
				"key":   params.Get("key"),
				"value": params.Get("value"),
			}, nil
		}
	}
	return nil, nil
}
