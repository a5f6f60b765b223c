package backend

import (
	"os/exec"
	"sync"
)

// lookPath is swapped in tests to fake tool presence.
var lookPath = exec.LookPath

// probeCache remembers which tools resolved on PATH. Probes are paid
// once per tool name for the life of the process; the guard only
// covers first population.
type probeCache struct {
	mu   sync.Mutex
	seen map[string]probeResult
}

type probeResult struct {
	path string
	ok   bool
}

var probes = probeCache{seen: make(map[string]probeResult)}

// LookupTool resolves the first of names found on PATH, caching every
// probe. It returns the resolved path and whether anything was found.
func LookupTool(names ...string) (string, bool) {
	probes.mu.Lock()
	defer probes.mu.Unlock()

	for _, name := range names {
		r, ok := probes.seen[name]
		if !ok {
			path, err := lookPath(name)
			r = probeResult{path: path, ok: err == nil}
			probes.seen[name] = r
		}
		if r.ok {
			return r.path, true
		}
	}
	return "", false
}

// toolOnPath reports whether any of names resolves on PATH.
func toolOnPath(names ...string) bool {
	_, ok := LookupTool(names...)
	return ok
}

// resetProbeCache clears cached probes. Test use only.
func resetProbeCache() {
	probes.mu.Lock()
	defer probes.mu.Unlock()
	probes.seen = make(map[string]probeResult)
}
