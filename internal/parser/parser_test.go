package parser

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/radekstepan/apply-llm-changes/internal/model"
	"github.com/radekstepan/apply-llm-changes/internal/oracle"
)

// stubOracle answers path queries from a canned map keyed on the fence line.
// The call counter is atomic because parallel mode asks from several
// goroutines at once.
type stubOracle struct {
	byFence map[string]string
	err     error
	calls   atomic.Int32
}

func (s *stubOracle) Ask(_ context.Context, w oracle.Window) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	if path, ok := s.byFence[w.Fence]; ok {
		return path, nil
	}
	return oracle.NoPath, nil
}

func extract(t *testing.T, content string, o oracle.Oracle, opts Options) *Result {
	t.Helper()
	res, err := Extract(context.Background(), content, o, opts)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return res
}

func TestExtract_TagBlock(t *testing.T) {
	res := extract(t, `<file path="data/config.json">{"key":"value"}</file>`, nil, Options{Policy: oracle.PolicyOff})

	if len(res.Files) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Files))
	}
	if got := res.Files["data/config.json"].Content; got != `{"key":"value"}` {
		t.Errorf("content = %q", got)
	}
}

func TestExtract_HeadingThenFence(t *testing.T) {
	content := "## File: styles/main.css\n\n```css\nbody { color: red; }\n```\n"
	res := extract(t, content, nil, Options{Policy: oracle.PolicyOff})

	block, ok := res.Files["styles/main.css"]
	if !ok {
		t.Fatalf("expected entry for styles/main.css, got %v", res.Order)
	}
	if block.Content != "body { color: red; }\n" {
		t.Errorf("content = %q", block.Content)
	}
	if block.Source != model.SourceHeuristic {
		t.Errorf("source = %q", block.Source)
	}
}

func TestExtract_UnresolvedBlockWarns(t *testing.T) {
	content := "Some prose.\n\n```js\nlet x = 1;\n```\n"
	o := &stubOracle{}
	res := extract(t, content, o, Options{Policy: oracle.PolicyFallback})

	if len(res.Files) != 0 {
		t.Fatalf("expected zero entries, got %v", res.Order)
	}
	if res.Unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", res.Unresolved)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "could not determine file path") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing warning, got %v", res.Warnings)
	}
	if n := o.calls.Load(); n != 1 {
		t.Errorf("oracle calls = %d, want 1", n)
	}
}

func TestExtract_MixedExplicitAndHeuristic(t *testing.T) {
	content := "/* START OF config/settings.yaml */\nkey: value\n/* END OF config/settings.yaml */\n\n" +
		"```bash\n# scripts/run.sh\necho hi\n```\n"
	res := extract(t, content, nil, Options{Policy: oracle.PolicyOff})

	if len(res.Files) != 2 {
		t.Fatalf("expected exactly 2 entries, got %v", res.Order)
	}
	if got := res.Files["config/settings.yaml"].Content; got != "key: value" {
		t.Errorf("yaml content = %q", got)
	}
	// The first-line comment is consumed.
	if got := res.Files["scripts/run.sh"].Content; got != "echo hi\n" {
		t.Errorf("script content = %q", got)
	}
}

func TestExtract_ExplicitBeatsHeuristic(t *testing.T) {
	content := `<file path="src/app.js">explicit content</file>` + "\n\n" +
		"`src/app.js`\n\n```js\ninferred content\n```\n"
	res := extract(t, content, nil, Options{Policy: oracle.PolicyOff})

	block := res.Files["src/app.js"]
	if block.Content != "explicit content" {
		t.Errorf("content = %q, want the explicit block to win", block.Content)
	}
	if block.Source != model.SourceExplicitTag {
		t.Errorf("source = %q", block.Source)
	}
}

func TestExtract_ExplicitSpanNotReinferred(t *testing.T) {
	// The fenced block inside the tag must not be re-seen once extracted.
	content := "<file path=\"docs/example.md\">\n```js\nlet x;\n```\n</file>"
	res := extract(t, content, nil, Options{Policy: oracle.PolicyOff})

	if len(res.Files) != 1 {
		t.Fatalf("expected 1 entry, got %v", res.Order)
	}
	if _, ok := res.Files["docs/example.md"]; !ok {
		t.Fatal("missing docs/example.md")
	}
}

func TestExtract_Idempotent(t *testing.T) {
	content := `<file path="a/b.txt">one</file><file path="c/d.txt">two</file>`
	first := extract(t, content, nil, Options{Policy: oracle.PolicyOff})
	second := extract(t, content, nil, Options{Policy: oracle.PolicyOff})

	if !reflect.DeepEqual(first.Files, second.Files) {
		t.Errorf("runs differ: %v vs %v", first.Files, second.Files)
	}
	if !reflect.DeepEqual(first.Order, second.Order) {
		t.Errorf("order differs: %v vs %v", first.Order, second.Order)
	}
}

func TestExtract_TraversalNeverBecomesKey(t *testing.T) {
	content := "`../../etc/passwd`\n\n```\nroot:x:0:0\n```\n" +
		`<file path="../../etc/shadow">nope</file>`
	o := &stubOracle{byFence: map[string]string{"```": "../../etc/passwd"}}
	res := extract(t, content, o, Options{Policy: oracle.PolicyFallback})

	for path := range res.Files {
		if strings.Contains(path, "..") {
			t.Fatalf("traversal path leaked into the map: %q", path)
		}
	}
}

func TestExtract_OracleFallback(t *testing.T) {
	content := "```go\npackage main\n```\n"
	o := &stubOracle{byFence: map[string]string{"```go": "cmd/main.go"}}
	res := extract(t, content, o, Options{Policy: oracle.PolicyFallback})

	block, ok := res.Files["cmd/main.go"]
	if !ok {
		t.Fatalf("expected oracle-resolved entry, got %v", res.Order)
	}
	if block.Source != model.SourceOracle {
		t.Errorf("source = %q", block.Source)
	}
}

func TestExtract_OracleNotAskedWhenHeuristicWins(t *testing.T) {
	content := "`src/a.js`\n\n```js\nlet a;\n```\n"
	o := &stubOracle{}
	res := extract(t, content, o, Options{Policy: oracle.PolicyFallback})

	if n := o.calls.Load(); n != 0 {
		t.Errorf("oracle calls = %d, want 0", n)
	}
	if _, ok := res.Files["src/a.js"]; !ok {
		t.Fatalf("expected heuristic entry, got %v", res.Order)
	}
}

func TestExtract_OracleAlwaysOverridesHeuristics(t *testing.T) {
	content := "`src/a.js`\n\n```js\nlet a;\n```\n"
	o := &stubOracle{byFence: map[string]string{"```js": "lib/b.js"}}
	res := extract(t, content, o, Options{Policy: oracle.PolicyAlways})

	if _, ok := res.Files["src/a.js"]; ok {
		t.Error("heuristic path should not be consulted under the always policy")
	}
	if _, ok := res.Files["lib/b.js"]; !ok {
		t.Fatalf("expected oracle entry, got %v", res.Order)
	}
}

func TestExtract_OracleErrorDropsBlockOnly(t *testing.T) {
	content := "```go\npackage a\n```\n\n`src/b.js`\n\n```js\nlet b;\n```\n"
	o := &stubOracle{err: errors.New("connection refused")}
	res := extract(t, content, o, Options{Policy: oracle.PolicyFallback})

	if _, ok := res.Files["src/b.js"]; !ok {
		t.Fatal("heuristic block must survive an oracle failure elsewhere")
	}
	if len(res.Files) != 1 {
		t.Errorf("expected 1 entry, got %v", res.Order)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "path oracle failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing oracle failure warning, got %v", res.Warnings)
	}
}

func TestExtract_ParallelMergesInDocumentOrder(t *testing.T) {
	content := "```go\npackage a\n```\n\n```js\nlet b;\n```\n\n```css\nbody {}\n```\n"
	o := &stubOracle{byFence: map[string]string{
		"```go":  "a/main.go",
		"```js":  "b/index.js",
		"```css": "c/style.css",
	}}
	res := extract(t, content, o, Options{Policy: oracle.PolicyFallback, Parallel: true})

	want := []string{"a/main.go", "b/index.js", "c/style.css"}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	res := extract(t, "just some text, no blocks", nil, Options{Policy: oracle.PolicyOff})
	if len(res.Files) != 0 || res.BlocksSeen != 0 {
		t.Errorf("expected a clean empty result, got files=%v seen=%d", res.Order, res.BlocksSeen)
	}
}
