package syntax

import "strings"

// CommentShape distinguishes // comments from /* */ comments.
type CommentShape int

const (
	LineComment CommentShape = iota
	BlockComment
)

// DocStyle says what, if anything, a comment documents.
type DocStyle int

const (
	NotDoc   DocStyle = iota
	OuterDoc          // documents the following item
	InnerDoc          // documents the enclosing item
)

// CommentKind classifies a comment token.
type CommentKind struct {
	Shape CommentShape
	Doc   DocStyle
}

// ClassifyComment follows rustc's lexer: "////" and "/***" are plain
// comments, and so is the empty block "/**/".
func ClassifyComment(text string) CommentKind {
	if strings.HasPrefix(text, "/*") {
		k := CommentKind{Shape: BlockComment}
		switch {
		case strings.HasPrefix(text, "/*!"):
			k.Doc = InnerDoc
		case strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/***") && text != "/**/":
			k.Doc = OuterDoc
		}
		return k
	}
	k := CommentKind{Shape: LineComment}
	switch {
	case strings.HasPrefix(text, "//!"):
		k.Doc = InnerDoc
	case strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////"):
		k.Doc = OuterDoc
	}
	return k
}

// IsDoc reports whether the comment is a doc comment.
func (k CommentKind) IsDoc() bool { return k.Doc != NotDoc }

// Prefix returns the comment's opening marker.
func (k CommentKind) Prefix() string {
	switch {
	case k.Shape == LineComment && k.Doc == OuterDoc:
		return "///"
	case k.Shape == LineComment && k.Doc == InnerDoc:
		return "//!"
	case k.Shape == LineComment:
		return "//"
	case k.Doc == OuterDoc:
		return "/**"
	case k.Doc == InnerDoc:
		return "/*!"
	default:
		return "/*"
	}
}
