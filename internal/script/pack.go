package script

import (
	"strings"
)

// Pack serializes a script. It never fails and is deterministic; for any
// script whose keys are non-empty and free of "]" and newlines, Parse(Pack(s))
// reproduces s.
func Pack(s *Script) string {
	var sb strings.Builder
	for _, e := range s.Entries {
		sb.WriteByte('[')
		sb.WriteString(e.Key)
		sb.WriteString("]\n")
		packTokens(&sb, e.Tokens)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PackTokens serializes a single entry body.
func PackTokens(tokens []Token) string {
	var sb strings.Builder
	packTokens(&sb, tokens)
	return sb.String()
}

func packTokens(sb *strings.Builder, tokens []Token) {
	atLineStart := true
	for i, tok := range tokens {
		switch t := tok.(type) {
		case Text:
			atLineStart = writeText(sb, t.Value, atLineStart)
			continue
		case Window:
			name := t.Name
			if name == "" {
				name = cmdWindow
			}
			writeCommand(sb, name, append([]string{t.Speaker}, t.Args...))
		case Animation:
			writeCommand(sb, cmdAnimation, append([]string{t.Target}, t.Args...))
		case Alias:
			writeCommand(sb, cmdAlias, append([]string{t.Displayed, t.Actual}, t.Args...))
		case Command:
			bare := t.NoParen && len(t.Args) == 0 && !continuesName(tokens[i+1:])
			switch {
			case t.Raw != "" && (!t.NoParen || bare):
				sb.WriteString(t.Raw)
			case bare:
				sb.WriteByte('$')
				sb.WriteString(t.Name)
			default:
				writeCommand(sb, t.Name, t.Args)
			}
		}
		atLineStart = false
	}
}

// continuesName reports whether the next token is text that would extend a
// preceding "$Name" or open an argument list for it.
func continuesName(rest []Token) bool {
	for _, tok := range rest {
		t, ok := tok.(Text)
		if !ok {
			return false
		}
		if t.Value != "" {
			return t.Value[0] == '(' || isNameByte(t.Value[0])
		}
	}
	return false
}

// writeText escapes text so it re-parses as a single Text token and reports
// whether the output now ends at the start of a line.
func writeText(sb *strings.Builder, s string, atLineStart bool) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '$':
			sb.WriteString(`\$`)
		case c == '[' && atLineStart:
			sb.WriteString(`\[`)
		default:
			sb.WriteByte(c)
		}
		atLineStart = c == '\n'
	}
	return atLineStart
}

func writeCommand(sb *strings.Builder, name string, args []string) {
	sb.WriteByte('$')
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteArg(a))
	}
	sb.WriteByte(')')
}

// quoteArg writes a bare argument when it re-parses unchanged and a quoted
// string otherwise.
func quoteArg(a string) string {
	if a != "" && !strings.ContainsAny(a, bareStop) {
		return a
	}
	var sb strings.Builder
	sb.Grow(len(a) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(a); i++ {
		switch c := a[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
