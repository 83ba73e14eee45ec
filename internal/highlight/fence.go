package highlight

import (
	"strings"
	"unicode"
)

// codeFence opens and closes a code block in documentation.
const codeFence = "```"

// IsRustFence reports whether the info string after a code fence marks the
// block as Rust example code, using rustdoc's rules. An empty info string is
// Rust. Tags like no_run or ignore still mean Rust; an unknown tag such as
// "text" makes the block non-Rust unless a Rust tag is also present.
func IsRustFence(info string) bool {
	seenRust, seenOther := false, false
	tokens := strings.FieldsFunc(info, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, tok := range tokens {
		switch tok {
		case "should_panic", "no_run", "ignore", "allow_fail":
			seenRust = !seenOther
		case "rust":
			seenRust = true
		case "test_harness", "compile_fail":
			seenRust = !seenOther || seenRust
		default:
			switch {
			case strings.HasPrefix(tok, "edition"):
			case isErrorCode(tok):
				seenRust = !seenOther || seenRust
			default:
				seenOther = true
			}
		}
	}
	return !seenOther || seenRust
}

// isErrorCode matches compiler error codes like E0123.
func isErrorCode(tok string) bool {
	if len(tok) != 5 || tok[0] != 'E' {
		return false
	}
	for i := 1; i < 5; i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}
