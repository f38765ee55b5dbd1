package ifc

import (
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
)

// ErrSyntax is the cause of every parse failure returned by Parse.
var ErrSyntax = errors.New("ifc: syntax error")

// ReadFile parses the STEP physical file at path.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "ifc: open")
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return m, nil
}

// Parse reads an ISO 10303-21 exchange structure. Complex (multi-type)
// instances are skipped; everything else in the DATA section becomes an
// entity of the returned model.
func Parse(r io.Reader) (*Model, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "ifc: read")
	}
	p := &parser{src: src, line: 1}
	return p.parse()
}

type parser struct {
	src  []byte
	pos  int
	line int
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.Wrapf(ErrSyntax, "line %d: "+format, append([]any{p.line}, args...)...)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

// skipSpace consumes whitespace and /* */ comments.
func (p *parser) skipSpace() error {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.advance()
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			start := p.line
			p.pos += 2
			for {
				if p.eof() {
					p.line = start
					return p.errorf("unterminated comment")
				}
				if p.peek() == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/' {
					p.pos += 2
					break
				}
				p.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) expect(c byte) error {
	if err := p.skipSpace(); err != nil {
		return err
	}
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of file", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.advance()
	return nil
}

func isKeywordChar(c byte) bool {
	return c == '_' || c == '-' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func (p *parser) keyword() string {
	start := p.pos
	for !p.eof() && isKeywordChar(p.peek()) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) parse() (*Model, error) {
	m := NewModel("")
	inData := false
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			if inData {
				return nil, p.errorf("unexpected end of file in DATA section")
			}
			return m, nil
		}

		if p.peek() == '#' {
			if !inData {
				return nil, p.errorf("instance outside DATA section")
			}
			if err := p.instance(m); err != nil {
				return nil, err
			}
			continue
		}

		kw := strings.ToUpper(p.keyword())
		if kw == "" {
			return nil, p.errorf("unexpected character %q", p.peek())
		}
		switch kw {
		case "END-ISO-10303-21":
			if err := p.expect(';'); err != nil {
				return nil, err
			}
			return m, nil
		case "ISO-10303-21", "HEADER", "ENDSEC":
			inData = false
			if err := p.expect(';'); err != nil {
				return nil, err
			}
		case "DATA":
			inData = true
			if err := p.skipSpace(); err != nil {
				return nil, err
			}
			if p.peek() == '(' {
				if _, err := p.list(); err != nil {
					return nil, err
				}
			}
			if err := p.expect(';'); err != nil {
				return nil, err
			}
		default:
			// Header entity.
			args, err := p.list()
			if err != nil {
				return nil, errors.WithMessage(err, kw)
			}
			if kw == "FILE_SCHEMA" {
				m.Schema = firstString(args)
			}
			if err := p.expect(';'); err != nil {
				return nil, err
			}
		}
	}
}

func firstString(v Value) string {
	switch x := v.(type) {
	case String:
		return string(x)
	case List:
		for _, item := range x {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func (p *parser) instance(m *Model) error {
	p.advance() // '#'
	id, err := p.integer()
	if err != nil {
		return err
	}
	if err := p.expect('='); err != nil {
		return err
	}
	if err := p.skipSpace(); err != nil {
		return err
	}

	if p.peek() == '(' {
		// Complex instance: ( TYPEA(...) TYPEB(...) ).
		if err := p.skipStatement(); err != nil {
			return errors.WithMessagef(err, "#%d", id)
		}
		return nil
	}

	typ := p.keyword()
	if typ == "" {
		return p.errorf("#%d: missing entity type", id)
	}
	args, err := p.list()
	if err != nil {
		return errors.WithMessagef(err, "#%d", id)
	}
	if err := p.expect(';'); err != nil {
		return err
	}
	m.Add(id, typ, args...)
	return nil
}

// skipStatement consumes input up to and including the next ';' outside
// string literals.
func (p *parser) skipStatement() error {
	for !p.eof() {
		c := p.peek()
		if c == '\'' {
			if _, err := p.str(); err != nil {
				return err
			}
			continue
		}
		p.advance()
		if c == ';' {
			return nil
		}
	}
	return p.errorf("unterminated statement")
}

func (p *parser) integer() (int, error) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	if err != nil {
		return 0, p.errorf("invalid instance id %q", string(p.src[start:p.pos]))
	}
	return n, nil
}

// list parses a parenthesized, comma separated parameter list.
func (p *parser) list() (List, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	out := List{}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() == ')' {
		p.advance()
		return out, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		switch p.peek() {
		case ',':
			p.advance()
		case ')':
			p.advance()
			return out, nil
		default:
			if p.eof() {
				return nil, p.errorf("unterminated parameter list")
			}
			return nil, p.errorf("expected ',' or ')', got %q", p.peek())
		}
	}
}

func (p *parser) value() (Value, error) {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	c := p.peek()
	switch {
	case c == '$':
		p.advance()
		return Null{}, nil
	case c == '*':
		p.advance()
		return Derived{}, nil
	case c == '#':
		p.advance()
		id, err := p.integer()
		if err != nil {
			return nil, err
		}
		return Ref(id), nil
	case c == '\'':
		return p.str()
	case c == '"':
		return p.binary()
	case c == '.':
		return p.enum()
	case c == '(':
		return p.list()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	case isKeywordChar(c):
		typ := p.keyword()
		args, err := p.list()
		if err != nil {
			return nil, errors.WithMessage(err, typ)
		}
		var inner Value = Null{}
		if len(args) == 1 {
			inner = args[0]
		} else if len(args) > 1 {
			inner = args
		}
		return Typed{Type: canonicalName(typ), Value: inner}, nil
	case p.eof():
		return nil, p.errorf("unexpected end of file")
	}
	return nil, p.errorf("unexpected character %q", c)
}

func (p *parser) number() (Value, error) {
	start := p.pos
	isReal := false
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	for !p.eof() {
		c := p.peek()
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'E' || c == 'e' {
			isReal = true
			p.pos++
			if (c == 'E' || c == 'e') && (p.peek() == '-' || p.peek() == '+') {
				p.pos++
			}
			continue
		}
		break
	}
	text := string(p.src[start:p.pos])
	if !isReal {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer %q", text)
		}
		return Int(n), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("invalid real %q", text)
	}
	return Real(f), nil
}

func (p *parser) enum() (Value, error) {
	p.advance()
	start := p.pos
	for !p.eof() && p.peek() != '.' {
		if !isKeywordChar(p.peek()) {
			return nil, p.errorf("invalid enumeration character %q", p.peek())
		}
		p.pos++
	}
	if p.eof() {
		return nil, p.errorf("unterminated enumeration")
	}
	name := string(p.src[start:p.pos])
	p.advance()
	return Enum(strings.ToUpper(name)), nil
}

func (p *parser) binary() (Value, error) {
	p.advance()
	start := p.pos
	for !p.eof() && p.peek() != '"' {
		p.advance()
	}
	if p.eof() {
		return nil, p.errorf("unterminated binary literal")
	}
	text := string(p.src[start:p.pos])
	p.advance()
	return String(text), nil
}

// str parses a quoted string and decodes the ISO 10303-21 control
// directives that appear in IFC exports (\X2\..\X0\, \X\hh, \S\c, '').
func (p *parser) str() (Value, error) {
	startLine := p.line
	p.advance()
	var raw strings.Builder
	for {
		if p.eof() {
			p.line = startLine
			return nil, p.errorf("unterminated string")
		}
		c := p.advance()
		if c == '\'' {
			if p.peek() == '\'' {
				p.advance()
				raw.WriteByte('\'')
				continue
			}
			break
		}
		raw.WriteByte(c)
	}
	s, err := decodeString(raw.String())
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return String(s), nil
}

func decodeString(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var out strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\X2\`):
			end := strings.Index(s[i+4:], `\X0\`)
			if end < 0 {
				return "", errors.Errorf("unterminated \\X2\\ directive")
			}
			hex := s[i+4 : i+4+end]
			if len(hex)%4 != 0 {
				return "", errors.Errorf("malformed \\X2\\ directive %q", hex)
			}
			units := make([]uint16, 0, len(hex)/4)
			for j := 0; j < len(hex); j += 4 {
				u, err := strconv.ParseUint(hex[j:j+4], 16, 16)
				if err != nil {
					return "", errors.Wrap(err, "\\X2\\ directive")
				}
				units = append(units, uint16(u))
			}
			out.WriteString(string(utf16.Decode(units)))
			i += 4 + end + 4
		case strings.HasPrefix(s[i:], `\X\`) && i+5 <= len(s):
			b, err := strconv.ParseUint(s[i+3:i+5], 16, 8)
			if err != nil {
				return "", errors.Wrap(err, "\\X\\ directive")
			}
			out.WriteRune(rune(b))
			i += 5
		case strings.HasPrefix(s[i:], `\S\`) && i+4 <= len(s):
			out.WriteRune(rune(s[i+3]) + 128)
			i += 4
		case strings.HasPrefix(s[i:], `\\`):
			out.WriteByte('\\')
			i += 2
		default:
			out.WriteByte(s[i])
			i++
		}
	}
	return out.String(), nil
}
