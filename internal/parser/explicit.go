package parser

import (
	"regexp"
	"strings"

	"github.com/radekstepan/apply-llm-changes/internal/model"
	"github.com/radekstepan/apply-llm-changes/internal/pathutil"
)

// Syntax selects one of the two explicit block forms.
type Syntax int

const (
	// SyntaxComment is the comment-delimited form:
	// /* START OF <path> */ ... /* END OF <path> */
	SyntaxComment Syntax = iota
	// SyntaxTag is the tagged form: <file path="...">...</file>.
	SyntaxTag
)

// placeholder replaces extracted spans so later stages never re-see or
// re-infer from them. It is prose-shaped on purpose: no heuristic can
// mistake it for a path.
const placeholder = "\n[file block extracted]\n"

var (
	commentStartRe = regexp.MustCompile(`/\*[ \t]*START OF[ \t]+([^*\n]+?)[ \t]*\*/`)
	commentEndRe   = regexp.MustCompile(`/\*[ \t]*END OF[ \t]+([^*\n]+?)[ \t]*\*/`)
	tagBlockRe     = regexp.MustCompile(`(?s)<file\s+(?:path|name|filename)\s*=\s*["']([^"']*)["']\s*>(.*?)</file>`)
)

// extractExplicit scans text for all non-overlapping explicit blocks of the
// given syntax, inserts valid entries into res, and returns the text with
// matched spans replaced by a placeholder. Malformed blocks are skipped with
// a warning, never an error.
func extractExplicit(text string, syntax Syntax, res *Result) string {
	if syntax == SyntaxComment {
		return extractCommentBlocks(text, res)
	}
	return extractTagBlocks(text, res)
}

func extractTagBlocks(text string, res *Result) string {
	var b strings.Builder
	last := 0
	for _, m := range tagBlockRe.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[0]])
		b.WriteString(placeholder)
		last = m[1]
		res.BlocksSeen++
		insertExplicitBlock(res, text[m[2]:m[3]], text[m[4]:m[5]], model.SourceExplicitTag)
	}
	b.WriteString(text[last:])
	return b.String()
}

// extractCommentBlocks pairs each START marker with the first END marker
// naming the same path. A nearer END naming a different path is stepped
// over, so an enclosing block still closes even when its content mentions
// other markers. A START with no matching END is left in place for the
// markdown pass.
func extractCommentBlocks(text string, res *Result) string {
	var b strings.Builder
	last := 0
	pos := 0
	for pos < len(text) {
		s := commentStartRe.FindStringSubmatchIndex(text[pos:])
		if s == nil {
			break
		}
		startAt := pos + s[0]
		contentFrom := pos + s[1]
		path := strings.TrimSpace(text[pos+s[2] : pos+s[3]])

		endAt, endTo := -1, -1
		for scan := contentFrom; scan < len(text); {
			e := commentEndRe.FindStringSubmatchIndex(text[scan:])
			if e == nil {
				break
			}
			if strings.TrimSpace(text[scan+e[2]:scan+e[3]]) == path {
				endAt, endTo = scan+e[0], scan+e[1]
				break
			}
			scan += e[1]
		}
		if endAt < 0 {
			pos = contentFrom
			continue
		}

		b.WriteString(text[last:startAt])
		b.WriteString(placeholder)
		last = endTo
		pos = endTo
		res.BlocksSeen++
		insertExplicitBlock(res, path, text[contentFrom:endAt], model.SourceExplicitComment)
	}
	b.WriteString(text[last:])
	return b.String()
}

func insertExplicitBlock(res *Result, path, content string, src model.Source) {
	normalized, err := pathutil.Normalize(path)
	if err != nil {
		res.warnf("skipping explicit block: %v", err)
		return
	}
	content = trimOneBlankLine(content)
	if content == "" {
		res.warnf("skipping explicit block for %s: no content", normalized)
		return
	}
	res.insert(model.FileBlock{Path: normalized, Content: content, Source: src})
}

// trimOneBlankLine removes at most one leading and one trailing blank line.
func trimOneBlankLine(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 && strings.TrimSpace(s[:i]) == "" {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "\n"); i >= 0 && strings.TrimSpace(s[i+1:]) == "" {
		s = s[:i]
	}
	return s
}
