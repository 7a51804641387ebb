package syntax

import (
	"fmt"
	"unicode"

	"martianoff/delegen/delerr"

	"github.com/antlr4-go/antlr/v4"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	EOF TokenKind = iota
	IdentTok
	LifetimeTok
	LiteralTok
	PunctTok
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case IdentTok:
		return "identifier"
	case LifetimeTok:
		return "lifetime"
	case LiteralTok:
		return "literal"
	case PunctTok:
		return "punctuation"
	}
	return "unknown"
}

// Token is a lexical token. Start and Stop are inclusive rune offsets into
// the input stream.
type Token struct {
	Kind  TokenKind
	Text  string
	Pos   Pos
	Start int
	Stop  int
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("`%s`", t.Text)
}

// Is reports whether the token is the punctuation or keyword text.
func (t Token) Is(text string) bool {
	return (t.Kind == PunctTok || t.Kind == IdentTok) && t.Text == text
}

type lexer struct {
	input  *antlr.InputStream
	line   int
	col    int
	tokens []Token
}

// Lex splits src into tokens. Comments and whitespace are dropped; the
// returned stream always ends with an EOF token.
func Lex(src string) ([]Token, *antlr.InputStream, error) {
	lx := &lexer{input: antlr.NewInputStream(src), line: 1, col: 1}
	if err := lx.run(); err != nil {
		return nil, nil, err
	}
	return lx.tokens, lx.input, nil
}

func (lx *lexer) peek(n int) rune {
	c := lx.input.LA(n)
	if c == antlr.TokenEOF {
		return -1
	}
	return rune(c)
}

func (lx *lexer) advance() {
	c := lx.peek(1)
	if c < 0 {
		return
	}
	if c == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	lx.input.Consume()
}

func (lx *lexer) pos() Pos {
	return Pos{Line: lx.line, Column: lx.col}
}

func (lx *lexer) emit(kind TokenKind, start int, pos Pos) {
	stop := lx.input.Index() - 1
	lx.tokens = append(lx.tokens, Token{
		Kind:  kind,
		Text:  lx.input.GetText(start, stop),
		Pos:   pos,
		Start: start,
		Stop:  stop,
	})
}

func (lx *lexer) errorf(pos Pos, format string, args ...any) error {
	return delerr.NewSyntaxError(pos.Err(), fmt.Sprintf(format, args...))
}

func (lx *lexer) run() error {
	for {
		if err := lx.skipTrivia(); err != nil {
			return err
		}
		c := lx.peek(1)
		if c < 0 {
			idx := lx.input.Index()
			lx.tokens = append(lx.tokens, Token{Kind: EOF, Pos: lx.pos(), Start: idx, Stop: idx - 1})
			return nil
		}
		start, pos := lx.input.Index(), lx.pos()
		switch {
		case c == 'r' && (lx.peek(2) == '"' || (lx.peek(2) == '#' && (lx.peek(3) == '"' || lx.peek(3) == '#'))):
			lx.advance()
			if err := lx.rawString(pos); err != nil {
				return err
			}
			lx.emit(LiteralTok, start, pos)
		case c == 'b' && lx.peek(2) == 'r' && (lx.peek(3) == '"' || lx.peek(3) == '#'):
			lx.advance()
			lx.advance()
			if err := lx.rawString(pos); err != nil {
				return err
			}
			lx.emit(LiteralTok, start, pos)
		case c == 'b' && lx.peek(2) == '"':
			lx.advance()
			if err := lx.quoted('"', pos); err != nil {
				return err
			}
			lx.emit(LiteralTok, start, pos)
		case c == 'b' && lx.peek(2) == '\'':
			lx.advance()
			if err := lx.quoted('\'', pos); err != nil {
				return err
			}
			lx.emit(LiteralTok, start, pos)
		case isIdentStart(c):
			for isIdentContinue(lx.peek(1)) {
				lx.advance()
			}
			lx.emit(IdentTok, start, pos)
		case unicode.IsDigit(c):
			lx.number()
			lx.emit(LiteralTok, start, pos)
		case c == '"':
			if err := lx.quoted('"', pos); err != nil {
				return err
			}
			lx.emit(LiteralTok, start, pos)
		case c == '\'':
			if err := lx.quoteOrLifetime(pos); err != nil {
				return err
			}
			kind := LiteralTok
			if lx.input.GetText(lx.input.Index()-1, lx.input.Index()-1) != "'" {
				kind = LifetimeTok
			}
			lx.emit(kind, start, pos)
		default:
			lx.punct(c)
			lx.emit(PunctTok, start, pos)
		}
	}
}

func (lx *lexer) skipTrivia() error {
	for {
		c := lx.peek(1)
		switch {
		case c >= 0 && unicode.IsSpace(c):
			lx.advance()
		case c == '/' && lx.peek(2) == '/':
			for c := lx.peek(1); c >= 0 && c != '\n'; c = lx.peek(1) {
				lx.advance()
			}
		case c == '/' && lx.peek(2) == '*':
			pos := lx.pos()
			lx.advance()
			lx.advance()
			depth := 1
			for depth > 0 {
				switch {
				case lx.peek(1) < 0:
					return lx.errorf(pos, "unterminated block comment")
				case lx.peek(1) == '/' && lx.peek(2) == '*':
					lx.advance()
					lx.advance()
					depth++
				case lx.peek(1) == '*' && lx.peek(2) == '/':
					lx.advance()
					lx.advance()
					depth--
				default:
					lx.advance()
				}
			}
		default:
			return nil
		}
	}
}

func (lx *lexer) quoted(q rune, pos Pos) error {
	lx.advance()
	for {
		c := lx.peek(1)
		switch {
		case c < 0:
			return lx.errorf(pos, "unterminated literal")
		case c == '\\':
			lx.advance()
			lx.advance()
		case c == q:
			lx.advance()
			return nil
		default:
			lx.advance()
		}
	}
}

// rawString consumes `#*"..."#*`; the `r` prefix is already consumed.
func (lx *lexer) rawString(pos Pos) error {
	hashes := 0
	for lx.peek(1) == '#' {
		hashes++
		lx.advance()
	}
	if lx.peek(1) != '"' {
		return lx.errorf(pos, "malformed raw string")
	}
	lx.advance()
	for {
		c := lx.peek(1)
		if c < 0 {
			return lx.errorf(pos, "unterminated raw string")
		}
		lx.advance()
		if c != '"' {
			continue
		}
		n := 0
		for n < hashes && lx.peek(1) == '#' {
			n++
			lx.advance()
		}
		if n == hashes {
			return nil
		}
	}
}

// quoteOrLifetime distinguishes `'a'` and `'\n'` character literals from `'a` lifetimes.
func (lx *lexer) quoteOrLifetime(pos Pos) error {
	if lx.peek(2) == '\\' || lx.peek(3) == '\'' {
		return lx.quoted('\'', pos)
	}
	lx.advance()
	if !isIdentStart(lx.peek(1)) {
		return lx.errorf(pos, "invalid lifetime or character literal")
	}
	for isIdentContinue(lx.peek(1)) {
		lx.advance()
	}
	return nil
}

func (lx *lexer) number() {
	for {
		c := lx.peek(1)
		switch {
		case isIdentContinue(c):
			lx.advance()
		case c == '.' && unicode.IsDigit(lx.peek(2)):
			lx.advance()
		default:
			return
		}
	}
}

func (lx *lexer) punct(c rune) {
	next := lx.peek(2)
	lx.advance()
	switch {
	case c == ':' && next == ':', c == '-' && next == '>', c == '=' && next == '>':
		lx.advance()
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentContinue(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
