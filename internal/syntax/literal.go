package syntax

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// StringLiteral is a Rust string literal token: "...", r#"..."#, b"...",
// br"..." or c"...". It knows where its delimiters are and how offsets in its
// decoded value map back to the document.
type StringLiteral struct {
	text   string // full token text, delimiters included
	offset uint32 // document offset of text
	prefix int    // delimiter bytes before the content
	suffix int    // delimiter bytes after the content
	raw    bool
	bytes  bool

	decoded bool
	value   string
	offsets []uint32 // value byte -> content byte; one extra entry for the end
	valid   bool
}

// StringLiteralFromNode wraps a string_literal or raw_string_literal node.
func StringLiteralFromNode(n *sitter.Node, src []byte) (*StringLiteral, bool) {
	switch n.Type() {
	case "string_literal", "raw_string_literal":
	default:
		return nil, false
	}
	return ParseStringLiteral(n.Content(src), n.StartByte())
}

// ParseStringLiteral recognizes text as a complete string literal token that
// starts at offset in its document. Unterminated literals are rejected.
func ParseStringLiteral(text string, offset uint32) (*StringLiteral, bool) {
	lit := &StringLiteral{text: text, offset: offset}
	i := 0
	if i < len(text) && (text[i] == 'b' || text[i] == 'c') {
		lit.bytes = text[i] == 'b'
		i++
	}
	hashes := 0
	if i < len(text) && text[i] == 'r' {
		lit.raw = true
		i++
		for i < len(text) && text[i] == '#' {
			hashes++
			i++
		}
	}
	if i >= len(text) || text[i] != '"' {
		return nil, false
	}
	lit.prefix = i + 1
	lit.suffix = 1 + hashes
	if len(text) < lit.prefix+lit.suffix {
		return nil, false
	}
	closing := text[len(text)-lit.suffix:]
	if closing[0] != '"' || strings.Count(closing, "#") != hashes {
		return nil, false
	}
	return lit, true
}

// IsRaw reports whether escapes are disabled in this literal.
func (s *StringLiteral) IsRaw() bool { return s.raw }

// Text returns the full token text.
func (s *StringLiteral) Text() string { return s.text }

// Range returns the document range of the whole token.
func (s *StringLiteral) Range() TextRange {
	return RangeAt(s.offset, uint32(len(s.text)))
}

// OpenQuoteRange covers the opening delimiter, prefix letters included.
func (s *StringLiteral) OpenQuoteRange() TextRange {
	return RangeAt(s.offset, uint32(s.prefix))
}

// CloseQuoteRange covers the closing quote and any trailing hashes.
func (s *StringLiteral) CloseQuoteRange() TextRange {
	return RangeAt(s.offset+uint32(len(s.text)-s.suffix), uint32(s.suffix))
}

// ContentRange covers the text between the delimiters.
func (s *StringLiteral) ContentRange() TextRange {
	return NewRange(s.offset+uint32(s.prefix), s.offset+uint32(len(s.text)-s.suffix))
}

// Content returns the undecoded text between the delimiters.
func (s *StringLiteral) Content() string {
	return s.text[s.prefix : len(s.text)-s.suffix]
}

// Value returns the decoded value. ok is false if an escape is malformed.
func (s *StringLiteral) Value() (string, bool) {
	s.decode()
	return s.value, s.valid
}

// MapRangeUp maps a range of the decoded value to the document range of the
// source text that produced it.
func (s *StringLiteral) MapRangeUp(r TextRange) (TextRange, bool) {
	s.decode()
	if !s.valid || r.End > uint32(len(s.value)) {
		return TextRange{}, false
	}
	start := s.ContentRange().Start
	if s.offsets == nil {
		return r.Shift(start), true
	}
	return NewRange(start+s.offsets[r.Start], start+s.offsets[r.End]), true
}

func (s *StringLiteral) decode() {
	if s.decoded {
		return
	}
	s.decoded = true
	content := s.Content()
	if s.raw {
		s.value, s.valid = content, true
		return
	}
	s.value, s.offsets, s.valid = unescape(content, s.bytes)
}

var simpleEscapes = map[byte]byte{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'\\': '\\',
	'0':  0,
	'\'': '\'',
	'"':  '"',
}

// unescape decodes Rust string escapes. offsets[i] is the content offset of
// the source text that produced value byte i.
func unescape(content string, isBytes bool) (string, []uint32, bool) {
	var b strings.Builder
	b.Grow(len(content))
	offsets := make([]uint32, 0, len(content)+1)

	for i := 0; i < len(content); {
		c := content[i]
		if c != '\\' {
			b.WriteByte(c)
			offsets = append(offsets, uint32(i))
			i++
			continue
		}
		if i+1 >= len(content) {
			return "", nil, false
		}
		start := uint32(i)
		switch e := content[i+1]; e {
		case 'n', 'r', 't', '\\', '0', '\'', '"':
			b.WriteByte(simpleEscapes[e])
			offsets = append(offsets, start)
			i += 2
		case 'x':
			if i+4 > len(content) {
				return "", nil, false
			}
			v, err := strconv.ParseUint(content[i+2:i+4], 16, 8)
			if err != nil || (!isBytes && v > 0x7f) {
				return "", nil, false
			}
			b.WriteByte(byte(v))
			offsets = append(offsets, start)
			i += 4
		case 'u':
			if isBytes || i+2 >= len(content) || content[i+2] != '{' {
				return "", nil, false
			}
			end := strings.IndexByte(content[i+3:], '}')
			if end < 0 {
				return "", nil, false
			}
			digits := strings.ReplaceAll(content[i+3:i+3+end], "_", "")
			if digits == "" || len(digits) > 6 {
				return "", nil, false
			}
			v, err := strconv.ParseUint(digits, 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", nil, false
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], rune(v))
			for k := 0; k < n; k++ {
				b.WriteByte(buf[k])
				offsets = append(offsets, start)
			}
			i += 3 + end + 1
		case '\n', '\r':
			// Line continuation: the newline and the next line's leading
			// whitespace are dropped.
			i++
			for i < len(content) && isContinuationSpace(content[i]) {
				i++
			}
		default:
			return "", nil, false
		}
	}
	offsets = append(offsets, uint32(len(content)))
	return b.String(), offsets, true
}

func isContinuationSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
