package script

import (
	"fmt"
	"strings"
)

// ParseError reports malformed script text. Line and Col are 1-based; Col
// counts bytes.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

// Parse tokenizes script source. Malformed input yields a *ParseError and no
// partial result.
func Parse(src string) (*Script, error) {
	s := &Script{}
	seen := make(map[string]bool)

	var (
		open      bool
		key       string
		bodyStart int
		bodyLine  int
	)
	closeEntry := func(end int) error {
		body := strings.TrimSuffix(src[bodyStart:end], "\n")
		tokens, err := parseBody(body, bodyLine)
		if err != nil {
			return err
		}
		s.Entries = append(s.Entries, Entry{Key: key, Tokens: tokens})
		return nil
	}

	off, lineNum := 0, 0
	for off < len(src) {
		lineNum++
		line := src[off:]
		next := len(src)
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
			next = off + nl + 1
		}

		if strings.HasPrefix(line, "[") {
			k, err := parseHeader(line, lineNum)
			if err != nil {
				return nil, err
			}
			if seen[k] {
				return nil, &ParseError{Line: lineNum, Col: 1, Msg: fmt.Sprintf("duplicate entry %q", k)}
			}
			if open {
				if err := closeEntry(off); err != nil {
					return nil, err
				}
			}
			seen[k] = true
			open, key, bodyStart, bodyLine = true, k, next, lineNum+1
		} else if !open && strings.TrimSpace(line) != "" {
			return nil, &ParseError{Line: lineNum, Col: 1, Msg: "text outside of an entry"}
		}

		off = next
	}

	if open {
		if err := closeEntry(len(src)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func parseHeader(line string, lineNum int) (string, error) {
	trimmed := strings.TrimSuffix(line, "\r")
	if len(trimmed) < 2 || !strings.HasSuffix(trimmed, "]") {
		return "", &ParseError{Line: lineNum, Col: 1, Msg: `unterminated entry header (escape a leading "[" in text as \[)`}
	}
	key := trimmed[1 : len(trimmed)-1]
	if key == "" {
		return "", &ParseError{Line: lineNum, Col: 1, Msg: "empty entry key"}
	}
	if i := strings.IndexByte(key, ']'); i >= 0 {
		return "", &ParseError{Line: lineNum, Col: i + 2, Msg: `"]" inside entry key`}
	}
	return key, nil
}

// bodyParser tokenizes one entry body.
type bodyParser struct {
	src       string
	pos       int
	firstLine int
}

func parseBody(body string, firstLine int) ([]Token, error) {
	p := &bodyParser{src: body, firstLine: firstLine}
	var tokens []Token
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, Text{Value: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.src) {
				return nil, p.errorf(p.pos, "dangling escape")
			}
			switch n := p.src[p.pos+1]; n {
			case '\\', '$', '[':
				text.WriteByte(n)
			default:
				return nil, p.errorf(p.pos, "invalid escape \\%c", n)
			}
			p.pos += 2
		case '$':
			flush()
			tok, err := p.command()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	flush()
	return tokens, nil
}

func (p *bodyParser) errorf(at int, format string, args ...any) *ParseError {
	before := p.src[:at]
	line := p.firstLine + strings.Count(before, "\n")
	col := at - strings.LastIndexByte(before, '\n')
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func isNameByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

// bareStop lists bytes that end a bare argument. quoteArg quotes any value
// containing one of them.
const bareStop = " \t\r\n,()\"$\\"

// command parses "$Name" or "$Name(args)" starting at p.pos.
func (p *bodyParser) command() (Token, error) {
	start := p.pos
	p.pos++

	nameStart := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[nameStart:p.pos]
	if name == "" {
		return nil, p.errorf(start, `"$" must start a command (escape it as \$)`)
	}

	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return Command{Name: name, NoParen: true, Raw: p.src[start:p.pos]}, nil
	}

	args, err := p.args()
	if err != nil {
		return nil, err
	}
	raw := p.src[start:p.pos]

	switch {
	case (name == cmdWindow || name == cmdWindow2) && len(args) >= 1:
		return Window{Name: name, Speaker: args[0], Args: rest(args, 1)}, nil
	case name == cmdAnimation && len(args) >= 1:
		return Animation{Target: args[0], Args: rest(args, 1)}, nil
	case name == cmdAlias && len(args) >= 2:
		return Alias{Displayed: args[0], Actual: args[1], Args: rest(args, 2)}, nil
	}
	return Command{Name: name, Args: rest(args, 0), Raw: raw}, nil
}

func rest(args []string, n int) []string {
	if len(args) <= n {
		return nil
	}
	return args[n:]
}

// args parses a parenthesized argument list; p.pos is at "(".
func (p *bodyParser) args() ([]string, error) {
	open := p.pos
	p.pos++
	var args []string

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return args, nil
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf(open, "unterminated argument list")
		}

		var arg string
		var err error
		if p.src[p.pos] == '"' {
			arg, err = p.quoted()
		} else {
			arg, err = p.bare()
		}
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf(open, "unterminated argument list")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.errorf(p.pos, `expected "," or ")" in argument list`)
		}
	}
}

func (p *bodyParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *bodyParser) bare() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(bareStop, p.src[p.pos]) < 0 {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf(start, "expected argument")
	}
	return p.src[start:p.pos], nil
}

func (p *bodyParser) quoted() (string, error) {
	start := p.pos
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return sb.String(), nil
		case '\n':
			return "", p.errorf(start, "unterminated string")
		case '\\':
			if p.pos+1 >= len(p.src) {
				return "", p.errorf(start, "unterminated string")
			}
			switch n := p.src[p.pos+1]; n {
			case '"', '\\':
				sb.WriteByte(n)
			case 'n':
				sb.WriteByte('\n')
			default:
				return "", p.errorf(p.pos, "invalid escape \\%c in string", n)
			}
			p.pos += 2
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf(start, "unterminated string")
}
