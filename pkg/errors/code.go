package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Sandbox & Path errors
// 12000-12999: Process execution errors
// 13000-13999: Toolchain pipeline errors
// 14000-14999: Plugin registry errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10004
	Timeout             ErrorCode = 10005

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	RequiredFieldEmpty ErrorCode = 10302

	// ========== Sandbox & Path Errors (11000-11999) ==========

	SandboxInit     ErrorCode = 11000
	PathEscape      ErrorCode = 11001
	FileReadFailed  ErrorCode = 11100
	FileWriteFailed ErrorCode = 11101
	FileListFailed  ErrorCode = 11102
	FileRemoveError ErrorCode = 11103

	// ========== Process Execution Errors (12000-12999) ==========

	SpawnFailure      ErrorCode = 12000
	EngineUnavailable ErrorCode = 12001
	OutputDrainFailed ErrorCode = 12002

	// ========== Toolchain Errors (13000-13999) ==========

	ToolchainWriteFailed ErrorCode = 13000
	ToolchainSpecInvalid ErrorCode = 13001

	// ========== Plugin Registry Errors (14000-14999) ==========

	PluginNotFound ErrorCode = 14000
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	RequiredFieldEmpty: "Required field is empty",

	// Sandbox & Path
	SandboxInit:     "Failed to initialize sandbox root",
	PathEscape:      "Path escapes sandbox",
	FileReadFailed:  "Failed to read file",
	FileWriteFailed: "Failed to write file",
	FileListFailed:  "Failed to list directory",
	FileRemoveError: "Failed to remove path",

	// Process execution
	SpawnFailure:      "Failed to spawn process",
	EngineUnavailable: "Execution engine unavailable",
	OutputDrainFailed: "Failed to drain process output",

	// Toolchain
	ToolchainWriteFailed: "Failed to write toolchain source",
	ToolchainSpecInvalid: "Invalid toolchain command template",

	// Plugin registry
	PluginNotFound: "Plugin not found",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == PluginNotFound:
		return 404
	case c == PathEscape:
		return 403
	case c == ServiceUnavailable, c == EngineUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
