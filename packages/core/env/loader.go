package env

import (
	"os"
	"strings"
)

// VariablePrefix marks environment variables that become suite variables,
// e.g. TIMECHECK_VAR_bogota=America/Bogota.
const VariablePrefix = "TIMECHECK_VAR_"

// MergeVariables merges sources left to right; later sources win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// StringVariables converts string pairs, such as --var flags, to variables.
func StringVariables(vars map[string]string) map[string]any {
	result := make(map[string]any, len(vars))
	for k, v := range vars {
		result[k] = v
	}
	return result
}

// LoadSystemEnv returns the environment variables starting with prefix,
// keyed by the remainder of their name.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// OverrideVariables returns base with overrides applied. An override whose
// name differs from an existing variable only in case replaces it, since
// config sources lowercase their keys.
func OverrideVariables(base, overrides map[string]any) map[string]any {
	result := MergeVariables(base)
	for k, v := range overrides {
		key := k
		for existing := range base {
			if strings.EqualFold(existing, k) {
				key = existing
				break
			}
		}
		result[key] = v
	}
	return result
}
