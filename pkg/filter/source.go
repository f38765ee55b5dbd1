package filter

import (
	"regexp"
	"strconv"
	"strings"
)

// kwPrefix marks string literals that were written as :keywords.
const kwPrefix = "__kw_"

// rewrite adapts filter source to what zygomys accepts:
//
//   - ; comments become // comments
//   - :name becomes the string "__kw_name", so (prop :NetVolume) works
//   - kebab-case calls become snake_case, so (is-a "IfcWall") reaches is_a
//
// String literals are copied untouched.
func rewrite(src string) string {
	var sb strings.Builder
	sb.Grow(len(src) + len(src)/4)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			j := skipString(src, i)
			sb.WriteString(src[i:j])
			i = j

		case c == '`':
			j := strings.IndexByte(src[i+1:], '`')
			if j < 0 {
				sb.WriteString(src[i:])
				return sb.String()
			}
			sb.WriteString(src[i : i+j+2])
			i += j + 2

		case c == ';':
			for i < len(src) && src[i] == ';' {
				i++
			}
			sb.WriteString("//")
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				sb.WriteString(src[i:])
				return sb.String()
			}
			sb.WriteString(src[i : i+j])
			i += j

		case c == ':' && i+1 < len(src) && src[i+1] == '=':
			sb.WriteString(":=")
			i += 2

		case c == ':' && i+1 < len(src) && isLetter(src[i+1]):
			j := i + 1
			for j < len(src) && isKeywordChar(src[j]) {
				j++
			}
			sb.WriteString(strconv.Quote(kwPrefix + src[i+1:j]))
			i = j

		case c == '-' && i > 0 && i+1 < len(src) && isIdentChar(src[i-1]) && isLetter(src[i+1]):
			sb.WriteByte('_')
			i++

		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// skipString returns the index just past the double-quoted literal that
// starts at src[i], or len(src) if it is unterminated.
func skipString(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(src)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isKeywordChar(c byte) bool {
	return isIdentChar(c) || c == '-' || c == '.'
}

// EvalError is a compile or runtime error in filter source.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return "filter: line " + strconv.Itoa(e.Line) + ": " + e.Message
	}
	return "filter: " + e.Message
}

var (
	lineLong  = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	lineShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// evalError pulls a line number out of a zygomys error message when there
// is one.
func evalError(err error) EvalError {
	msg := strings.TrimSpace(err.Error())
	for _, re := range []*regexp.Regexp{lineLong, lineShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
		}
	}
	return EvalError{Message: msg}
}
