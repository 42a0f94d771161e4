package parser

import (
	"regexp"
	"strings"

	"github.com/radekstepan/apply-llm-changes/internal/model"
	"github.com/radekstepan/apply-llm-changes/internal/pathutil"
)

// Match is a successful path location for a fenced code block.
type Match struct {
	Candidate model.PathCandidate
	Content   string // block content, possibly with a consumed comment line removed
}

type strategyFunc func(d *Document, idx int) (candidate, content string, ok bool)

type strategy struct {
	name string
	fn   strategyFunc
}

// strategies is the ranked cascade. Order encodes descending confidence and
// the first validating result wins.
var strategies = []strategy{
	{"front-matter", frontMatterPath},
	{"preceding-node", precedingNodePath},
	{"header-comment", headerCommentPath},
	{"list-item", listItemPath},
	{"first-line-comment", firstLineCommentPath},
}

// Locate runs the cascade for the fenced code node at idx. Candidates that
// fail validation do not stop the cascade.
func Locate(d *Document, idx int) (Match, bool) {
	for _, s := range strategies {
		cand, content, ok := s.fn(d, idx)
		if !ok {
			continue
		}
		normalized, err := pathutil.Normalize(cand)
		if err != nil {
			continue
		}
		return Match{
			Candidate: model.PathCandidate{Text: normalized, Strategy: s.name},
			Content:   content,
		}, true
	}
	return Match{}, false
}

// --- front-matter ---

// frontMatterRe matches a literal `--- path: value ---` block ending right
// where the fence begins.
var frontMatterRe = regexp.MustCompile(`(?m)^---[ \t]*\npath:[ \t]*([^\n]+?)[ \t]*\n---[ \t]*\n[ \t\n]*\z`)

func frontMatterPath(d *Document, idx int) (string, string, bool) {
	n := d.Nodes[idx]
	if n.Offset <= 0 {
		return "", "", false
	}
	m := frontMatterRe.FindStringSubmatch(string(d.Source[:n.Offset]))
	if m == nil {
		return "", "", false
	}
	return m[1], n.Content, true
}

// --- preceding node ---

var (
	// headingFileRe matches "File: styles/main.css" or "Path `a/b.go`" in a
	// heading's text (hashes are already stripped by the tokenizer).
	headingFileRe = regexp.MustCompile("(?i)^(?:File|Path)(?::|[ \t])[ \t]*`?([^`\\s]+)`?[ \t]*$")
	// paragraphMarkerRe matches a paragraph opening with an explicit
	// "File:"/"Path:" marker, optionally bolded.
	paragraphMarkerRe = regexp.MustCompile(`(?i)^(?:\*\*)?(?:File|Path)(?:\*\*)?:(?:\*\*)?[ \t]*(.+)$`)
	// inlineCodeRe matches a backticked token that ends in a dot-extension.
	inlineCodeRe = regexp.MustCompile("`([^`\\s]+\\.[A-Za-z0-9]{1,8})`")
)

func precedingNodePath(d *Document, idx int) (string, string, bool) {
	for i := idx - 1; i >= 0; i-- {
		n := d.Nodes[i]
		if n.Kind == KindSpace {
			continue
		}
		if n.Kind != KindHeading && n.Kind != KindParagraph && n.Kind != KindRawText {
			return "", "", false
		}
		cand, ok := pathFromNodeText(n)
		if !ok {
			return "", "", false
		}
		return cand, d.Nodes[idx].Content, true
	}
	return "", "", false
}

func pathFromNodeText(n Node) (string, bool) {
	raw := strings.TrimSpace(n.Raw)
	if raw == "" {
		return "", false
	}
	if n.Kind == KindHeading {
		if m := headingFileRe.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	if m := paragraphMarkerRe.FindStringSubmatch(raw); m != nil {
		return strings.Trim(m[1], "*"), true
	}
	if m := inlineCodeRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	// A paragraph that is solely a path, possibly backticked or bolded.
	sole := strings.Trim(raw, "*`")
	if !strings.ContainsAny(sole, " \t") && pathutil.Valid(sole) {
		return sole, true
	}
	return "", false
}

// --- header comment inside the code ---

// blockCommentPathRe matches a line shaped exactly `* <path>` inside an
// opening block comment.
var blockCommentPathRe = regexp.MustCompile(`^[ \t]*\*[ \t]+(\S+)[ \t]*$`)

func headerCommentPath(d *Document, idx int) (string, string, bool) {
	content := d.Nodes[idx].Content
	trimmed := strings.TrimLeft(content, " \t\n")
	if !strings.HasPrefix(trimmed, "/*") {
		return "", "", false
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if m := blockCommentPathRe.FindStringSubmatch(line); m != nil && pathutil.Valid(m[1]) {
			return m[1], content, true
		}
		if strings.Contains(line, "*/") {
			break
		}
	}
	return "", "", false
}

// --- list item ---

const listItemLookback = 5

var boldBacktickRe = regexp.MustCompile("\\*\\*`([^`\\n]+)`\\*\\*")

func listItemPath(d *Document, idx int) (string, string, bool) {
	for i, steps := idx-1, 0; i >= 0 && steps < listItemLookback; i, steps = i-1, steps+1 {
		n := d.Nodes[i]
		if n.Kind != KindListItem {
			continue
		}
		// The first list item decides, match or not.
		m := boldBacktickRe.FindStringSubmatch(n.Raw)
		if m == nil {
			return "", "", false
		}
		return m[1], d.Nodes[idx].Content, true
	}
	return "", "", false
}

// --- first-line comment ---

// lineCommentRes covers the single-line comment shapes the locator will
// consume from the top of a block, markup comments included.
var lineCommentRes = []*regexp.Regexp{
	regexp.MustCompile(`^//[ \t]*(.+?)[ \t]*$`),
	regexp.MustCompile(`^#[ \t]*(.+?)[ \t]*$`),
	regexp.MustCompile(`^--[ \t]*(.+?)[ \t]*$`),
	regexp.MustCompile(`^;[ \t]*(.+?)[ \t]*$`),
	regexp.MustCompile(`^/\*[ \t]*(.+?)[ \t]*\*/[ \t]*$`),
	regexp.MustCompile(`^<!--[ \t]*(.+?)[ \t]*-->[ \t]*$`),
}

var filePrefixRe = regexp.MustCompile(`(?i)^File:[ \t]*`)

func firstLineCommentPath(d *Document, idx int) (string, string, bool) {
	content := d.Nodes[idx].Content
	line, rest, _ := strings.Cut(content, "\n")
	if strings.HasPrefix(line, "#!") {
		return "", "", false // shebang, not a path comment
	}
	for _, re := range lineCommentRes {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		payload := filePrefixRe.ReplaceAllString(m[1], "")
		if strings.ContainsAny(payload, " \t") || !pathutil.Valid(payload) {
			continue
		}
		// The comment line is consumed: stored content starts below it.
		return payload, rest, true
	}
	return "", "", false
}
