package parse

import (
	"context"
	"fmt"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

type (
	Token any

	EOF struct{}

	Ident       string
	Keyword     string
	Number      string
	FloatNumber string
	String      string
	Punct       string

	// Invalid is a piece of text no token starts with.
	Invalid string

	Spaces uint64
)

var SpaceAll = NewSpaces(' ', '\t', '\r', '\n', '\v', '\f')

var keywords = map[string]struct{}{
	"auto": {}, "break": {}, "case": {}, "char": {}, "const": {}, "continue": {},
	"default": {}, "do": {}, "double": {}, "else": {}, "enum": {}, "extern": {},
	"float": {}, "for": {}, "goto": {}, "if": {}, "int": {}, "long": {},
	"register": {}, "return": {}, "short": {}, "signed": {}, "sizeof": {},
	"static": {}, "struct": {}, "switch": {}, "typedef": {}, "union": {},
	"unsigned": {}, "void": {}, "volatile": {}, "while": {},
}

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

// next returns the token at st, its start tst and the position after it.
// Comments are skipped together with spaces.
func (s *State) next(ctx context.Context, st int) (tk Token, tst int, i int) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tk", tk, "tst", tst, "i", i, "from", loc.Callers(1, 3))
		}(st)
	}

	b := s.b
	i = st

	for {
		i = SpaceAll.Skip(b, i)

		if i+1 < len(b) && b[i] == '/' && b[i+1] == '/' {
			i = skipLine(b, i)
			continue
		}

		if i+1 < len(b) && b[i] == '/' && b[i+1] == '*' {
			e := skipBlockComment(b, i+2)
			if e < 0 {
				return Invalid("unterminated comment"), i, len(b)
			}

			i = e
			continue
		}

		break
	}

	tst = i

	if i == len(b) {
		return EOF{}, tst, i
	}

	c := b[i]

	switch c {
	case '(', ')', '{', '}', '[', ']', ';', ',', '*', '/', '%':
		return Punct(b[i : i+1]), tst, i + 1
	case '+', '-':
		if i+1 < len(b) && b[i+1] == c {
			return Punct(b[i : i+2]), tst, i + 2
		}

		return Punct(b[i : i+1]), tst, i + 1
	case '<', '>', '=', '!':
		if i+1 < len(b) && b[i+1] == '=' {
			return Punct(b[i : i+2]), tst, i + 2
		}

		if c == '!' {
			return Invalid(b[i : i+1]), tst, i + 1
		}

		return Punct(b[i : i+1]), tst, i + 1
	case '"':
		e := skipString(b, i+1)
		if e < 0 {
			return Invalid("unterminated string"), tst, len(b)
		}

		return String(b[i:e]), tst, e
	}

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		e := skipIdent(b, i)

		if _, ok := keywords[string(b[i:e])]; ok {
			return Keyword(b[i:e]), tst, e
		}

		return Ident(b[i:e]), tst, e
	case c >= '0' && c <= '9':
		e := skipNum(b, i)

		if e+1 < len(b) && b[e] == '.' && isDigit(b[e+1]) {
			e = skipNum(b, e+1)

			return FloatNumber(b[i:e]), tst, e
		}

		return Number(b[i:e]), tst, e
	default:
		return Invalid(b[i : i+1]), tst, i + 1
	}
}

func describe(tk Token) string {
	switch tk := tk.(type) {
	case nil, EOF:
		return "end of input"
	case Ident:
		return fmt.Sprintf("identifier %s", string(tk))
	case Keyword:
		return fmt.Sprintf("keyword %s", string(tk))
	case Number:
		return fmt.Sprintf("number %s", string(tk))
	case FloatNumber:
		return fmt.Sprintf("float %s", string(tk))
	case String:
		return fmt.Sprintf("string %s", string(tk))
	case Punct:
		return fmt.Sprintf("%q", string(tk))
	case Invalid:
		return fmt.Sprintf("invalid text %q", string(tk))
	default:
		return fmt.Sprintf("%v (%[1]T)", tk)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func skipNum(b []byte, i int) int {
	for i < len(b) && isDigit(b[i]) {
		i++
	}

	return i
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (b[i] >= 'a' && b[i] <= 'z' || b[i] >= 'A' && b[i] <= 'Z' || isDigit(b[i]) || b[i] == '_') {
		i++
	}

	return i
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}

func skipBlockComment(b []byte, i int) int {
	for ; i+1 < len(b); i++ {
		if b[i] == '*' && b[i+1] == '/' {
			return i + 2
		}
	}

	return -1
}

func skipString(b []byte, i int) int {
	for ; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}

	return -1
}
