package subproc

import (
	"os"
	"sort"
)

// mergeEnviron is the default environment collaborator: the inherited
// environment with the caller's overrides appended. Later entries win in
// the child, so overrides take effect without rewriting the inherited
// list. Overrides are appended in sorted order for determinism.
func mergeEnviron(overrides map[string]string) []string {
	env := os.Environ()
	if len(overrides) == 0 {
		return env
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
