package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"
)

type searchGlobals struct {
	path    string
	limit   int
	sort    string
	desc    bool
	backend string
	noLLM   bool
	json    bool

	exts     []string
	typ      string
	content  string
	minSize  string
	maxSize  string
	newer    string
	older    string
	depth    int
	caseSens bool
	noHidden bool
}

func withSearchGlobals(t *testing.T, g searchGlobals) {
	t.Helper()
	oldMode := colorMode
	old := searchGlobals{
		path:     searchPath,
		limit:    searchLimit,
		sort:     searchSort,
		desc:     searchDesc,
		backend:  searchBackend,
		noLLM:    searchNoLLM,
		json:     searchJSON,
		exts:     searchExts,
		typ:      searchType,
		content:  searchContent,
		minSize:  searchMinSize,
		maxSize:  searchMaxSize,
		newer:    searchNewer,
		older:    searchOlder,
		depth:    searchDepth,
		caseSens: searchCaseSens,
		noHidden: searchNoHidden,
	}
	searchPath = g.path
	searchLimit = g.limit
	searchSort = g.sort
	searchDesc = g.desc
	searchBackend = g.backend
	searchNoLLM = g.noLLM
	searchJSON = g.json
	searchExts = g.exts
	searchType = g.typ
	searchContent = g.content
	searchMinSize = g.minSize
	searchMaxSize = g.maxSize
	searchNewer = g.newer
	searchOlder = g.older
	searchDepth = g.depth
	searchCaseSens = g.caseSens
	searchNoHidden = g.noHidden

	t.Cleanup(func() {
		colorMode = oldMode
		searchPath = old.path
		searchLimit = old.limit
		searchSort = old.sort
		searchDesc = old.desc
		searchBackend = old.backend
		searchNoLLM = old.noLLM
		searchJSON = old.json
		searchExts = old.exts
		searchType = old.typ
		searchContent = old.content
		searchMinSize = old.minSize
		searchMaxSize = old.maxSize
		searchNewer = old.newer
		searchOlder = old.older
		searchDepth = old.depth
		searchCaseSens = old.caseSens
		searchNoHidden = old.noHidden
	})
}

// withTempHome points the XDG directories at a temp dir so tests
// never touch the real config or history database.
func withTempHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", tmp+"/.config")
	t.Setenv("XDG_DATA_HOME", tmp+"/.local/share")
	t.Setenv("XDG_CACHE_HOME", tmp+"/.cache")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("NLFIND_PROVIDER", "")
	t.Setenv("NLFIND_MODEL", "")
	t.Setenv("NLFIND_BASE_URL", "")
	t.Setenv("NLFIND_BACKEND", "")
	t.Setenv("NLFIND_HISTORY", "")
	return tmp
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}
