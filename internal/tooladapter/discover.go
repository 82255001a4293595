package tooladapter

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/pdfpipe/server/internal/apperr"
)

// discoveryCache resolves each tool's path once per process lifetime and
// caches it, so a one-time PATH lookup doesn't repeat per invocation
// (spec.md §4.3/§9 "resolved once at first use and cached for the process
// lifetime").
var discoveryCache struct {
	mu    sync.Mutex
	paths map[string]string
	errs  map[string]*apperr.Coded
}

func init() {
	discoveryCache.paths = make(map[string]string)
	discoveryCache.errs = make(map[string]*apperr.Coded)
}

// OverridePath lets configuration (e.g. CHROMIUM_PATH) pre-seed the cache
// for a tool name instead of relying on PATH lookup.
func OverridePath(name, path string) {
	discoveryCache.mu.Lock()
	defer discoveryCache.mu.Unlock()
	discoveryCache.paths[name] = path
	delete(discoveryCache.errs, name)
}

// Discover resolves name's absolute path, caching success and failure
// alike so a missing tool fails every request with TOOL_UNAVAILABLE rather
// than repeatedly hitting the filesystem.
func Discover(name string) (string, *apperr.Coded) {
	discoveryCache.mu.Lock()
	defer discoveryCache.mu.Unlock()

	if p, ok := discoveryCache.paths[name]; ok {
		return p, nil
	}
	if e, ok := discoveryCache.errs[name]; ok {
		return "", e
	}

	path, err := exec.LookPath(name)
	if err != nil {
		coded := apperr.New(apperr.ToolUnavailable, fmt.Sprintf("required tool %q is not installed", name))
		discoveryCache.errs[name] = coded
		return "", coded
	}
	discoveryCache.paths[name] = path
	return path, nil
}
