package model

// Source identifies which extraction stage produced a FileBlock.
type Source string

const (
	SourceExplicitTag     Source = "explicit-tag"
	SourceExplicitComment Source = "explicit-comment"
	SourceHeuristic       Source = "heuristic"
	SourceOracle          Source = "oracle"
)

// Explicit reports whether the source is one of the unambiguous wrapper
// syntaxes, which always win over inferred paths.
func (s Source) Explicit() bool {
	return s == SourceExplicitTag || s == SourceExplicitComment
}

// FileBlock is a single extracted file: a validated relative path and the
// content destined for it.
type FileBlock struct {
	Path    string
	Content string
	Source  Source
}

// PathCandidate is a raw path produced by one heuristic strategy, before
// validation.
type PathCandidate struct {
	Text     string
	Strategy string
}

// Summary holds the results of a run for display.
type Summary struct {
	Created  []string
	Modified []string
	Failed   []string
	Message  string
}
