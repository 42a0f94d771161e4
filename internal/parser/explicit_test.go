package parser

import (
	"strings"
	"testing"

	"github.com/radekstepan/apply-llm-changes/internal/model"
)

func TestExtractExplicit_TagForm(t *testing.T) {
	res := newResult()
	remaining := extractExplicit(`Intro text.
<file path="data/config.json">{"key":"value"}</file>
Outro text.`, SyntaxTag, res)

	block, ok := res.Files["data/config.json"]
	if !ok {
		t.Fatalf("expected entry for data/config.json, got %v", res.Files)
	}
	if block.Content != `{"key":"value"}` {
		t.Errorf("content = %q", block.Content)
	}
	if block.Source != model.SourceExplicitTag {
		t.Errorf("source = %q", block.Source)
	}
	if strings.Contains(remaining, "<file") {
		t.Errorf("matched span not removed: %q", remaining)
	}
	if !strings.Contains(remaining, "Intro text.") || !strings.Contains(remaining, "Outro text.") {
		t.Errorf("surrounding text lost: %q", remaining)
	}
}

func TestExtractExplicit_TagAttributeAliases(t *testing.T) {
	for _, attr := range []string{"path", "name", "filename"} {
		t.Run(attr, func(t *testing.T) {
			res := newResult()
			extractExplicit(`<file `+attr+`="src/a.js">let a = 1;</file>`, SyntaxTag, res)
			if _, ok := res.Files["src/a.js"]; !ok {
				t.Fatalf("attribute %s not recognized", attr)
			}
		})
	}
}

func TestExtractExplicit_TagPathWithSpaces(t *testing.T) {
	res := newResult()
	extractExplicit(`<file path="My Documents/report v2.txt">quarterly numbers</file>`, SyntaxTag, res)

	block, ok := res.Files["My Documents/report v2.txt"]
	if !ok {
		t.Fatalf("expected entry for the spaced path, got %v, warnings %v", res.Files, res.Warnings)
	}
	if block.Content != "quarterly numbers" {
		t.Errorf("content = %q", block.Content)
	}
}

func TestExtractExplicit_CommentForm(t *testing.T) {
	res := newResult()
	text := "/* START OF config/settings.yaml */\nkey: value\n/* END OF config/settings.yaml */"
	remaining := extractExplicit(text, SyntaxComment, res)

	block, ok := res.Files["config/settings.yaml"]
	if !ok {
		t.Fatalf("expected entry for config/settings.yaml, got %v", res.Files)
	}
	if block.Content != "key: value" {
		t.Errorf("content = %q", block.Content)
	}
	if block.Source != model.SourceExplicitComment {
		t.Errorf("source = %q", block.Source)
	}
	if strings.Contains(remaining, "START OF") {
		t.Errorf("matched span not removed: %q", remaining)
	}
}

func TestExtractExplicit_CommentMismatchIsNoMatch(t *testing.T) {
	res := newResult()
	text := "/* START OF a/b.txt */\ncontent\n/* END OF c/d.txt */"
	remaining := extractExplicit(text, SyntaxComment, res)

	if len(res.Files) != 0 {
		t.Fatalf("mismatched markers must not produce entries: %v", res.Files)
	}
	if remaining != text {
		t.Errorf("mismatched span should be left untouched: %q", remaining)
	}
}

func TestExtractExplicit_CommentEnclosesForeignEndMarker(t *testing.T) {
	res := newResult()
	text := "/* START OF src/outer.css */\n" +
		"a { color: red; }\n" +
		"/* END OF some/other.css */\n" +
		"b { color: blue; }\n" +
		"/* END OF src/outer.css */"
	remaining := extractExplicit(text, SyntaxComment, res)

	block, ok := res.Files["src/outer.css"]
	if !ok {
		t.Fatalf("expected entry for src/outer.css, got %v", res.Files)
	}
	if !strings.Contains(block.Content, "END OF some/other.css") {
		t.Errorf("inner marker should stay in the content, got %q", block.Content)
	}
	if !strings.Contains(block.Content, "b { color: blue; }") {
		t.Errorf("content cut short at the inner marker: %q", block.Content)
	}
	if strings.Contains(remaining, "START OF") {
		t.Errorf("matched span not removed: %q", remaining)
	}
}

func TestExtractExplicit_BlankLineTrimming(t *testing.T) {
	res := newResult()
	extractExplicit("<file path=\"src/a.txt\">\nhello\nworld\n</file>", SyntaxTag, res)
	block := res.Files["src/a.txt"]
	if block.Content != "hello\nworld" {
		t.Errorf("content = %q, want %q", block.Content, "hello\nworld")
	}
}

func TestExtractExplicit_InvalidPathSkipped(t *testing.T) {
	res := newResult()
	extractExplicit(`<file path="../../etc/passwd">root:x:0:0</file>`, SyntaxTag, res)
	if len(res.Files) != 0 {
		t.Fatalf("traversal path must never become a map key: %v", res.Files)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning for the rejected block")
	}
}

func TestExtractExplicit_CollisionOverwritesWithWarning(t *testing.T) {
	res := newResult()
	extractExplicit(`<file path="a/b.txt">first</file>
<file path="a/b.txt">second</file>`, SyntaxTag, res)

	if got := res.Files["a/b.txt"].Content; got != "second" {
		t.Errorf("content = %q, want last-write-wins", got)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a collision warning")
	}
	if len(res.Order) != 1 {
		t.Errorf("path recorded %d times in order, want 1", len(res.Order))
	}
}

func TestTrimOneBlankLine(t *testing.T) {
	tests := []struct{ in, want string }{
		{"\nhello\n", "hello"},
		{"hello", "hello"},
		{"\n\nhello\n\n", "\nhello\n"},
		{"no newline at all", "no newline at all"},
	}
	for _, tt := range tests {
		if got := trimOneBlankLine(tt.in); got != tt.want {
			t.Errorf("trimOneBlankLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
