package ast

import "github.com/sirupsen/logrus"

// NewLineKind selects the line terminator the core treats as one unit:
// Node.Remove swallows one terminator of this kind after a node that sits
// alone on its line. The edit planner inserts no terminators of its own —
// newText is spliced in exactly as given — and it never rewrites
// terminators already present in source text.
type NewLineKind int

const (
	LF NewLineKind = iota
	CRLF
)

func (k NewLineKind) String() string {
	if k == CRLF {
		return "\r\n"
	}
	return "\n"
}

// ManipulationSettings are the only configuration the core recognizes.
// There is no CLI, no environment variable, and no persisted settings
// file — a GlobalContainer is constructed in-process with whatever
// settings the embedding application wants.
type ManipulationSettings struct {
	NewLineKind     NewLineKind
	IndentationText string

	// LogLevel controls the ambient logging concern only; it never affects
	// tree semantics or the edit protocol. NewGlobalContainer applies it to
	// the *logrus.Logger it builds.
	LogLevel logrus.Level
}

// DefaultManipulationSettings returns the conventional default: LF line
// endings, four-space indentation, and warn-level logging.
func DefaultManipulationSettings() *ManipulationSettings {
	return &ManipulationSettings{
		NewLineKind:     LF,
		IndentationText: "    ",
		LogLevel:        logrus.WarnLevel,
	}
}

// GetChildIndentationText returns one indentation level's text.
func (s *ManipulationSettings) GetChildIndentationText() string {
	return s.IndentationText
}
