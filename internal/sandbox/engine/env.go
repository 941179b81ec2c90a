package engine

import "sort"

// pathVar is the lookup variable used to locate executables.
const pathVar = "PATH"

// BuildEnv constructs the child environment from the caller-supplied mapping.
// The host PATH is injected only when the mapping does not define one, so
// toolchain binaries stay discoverable; an explicit value always wins.
// Keys are emitted in sorted order.
func BuildEnv(env map[string]string, hostPath string) []string {
	out := make([]string, 0, len(env)+1)
	if _, ok := env[pathVar]; !ok && hostPath != "" {
		out = append(out, pathVar+"="+hostPath)
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
