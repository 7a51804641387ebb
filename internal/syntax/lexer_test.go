package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTexts(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == EOF {
			break
		}
		out = append(out, t.Text)
	}
	return out
}

func TestLexSplitsPunctuation(t *testing.T) {
	toks, _, err := Lex("fn f<'a>(x: &'a u8) -> Vec<Vec<u8>> // trailing\n=> ::x")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"fn", "f", "<", "'a", ">", "(", "x", ":", "&", "'a", "u8", ")", "->",
		"Vec", "<", "Vec", "<", "u8", ">", ">", "=>", "::", "x",
	}, tokenTexts(toks))
	assert.Equal(t, EOF, toks[len(toks)-1].Kind)
}

func TestLexLifetimeVersusChar(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"'a", LifetimeTok},
		{"'static", LifetimeTok},
		{"'a'", LiteralTok},
		{`'\n'`, LiteralTok},
		{`b'x'`, LiteralTok},
		{`"str\"ing"`, LiteralTok},
		{`r#"raw "quoted""#`, LiteralTok},
		{"1_000u32", LiteralTok},
		{"2.5", LiteralTok},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, _, err := Lex(tt.src)
			require.NoError(t, err)
			require.Len(t, toks, 2)
			assert.Equal(t, tt.kind, toks[0].Kind)
			assert.Equal(t, tt.src, toks[0].Text)
		})
	}
}

func TestLexPositions(t *testing.T) {
	toks, _, err := Lex("a\n  /* nested /* comment */ */ b")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, Pos{Line: 1, Column: 1}, toks[0].Pos)
	assert.Equal(t, Pos{Line: 2, Column: 30}, toks[1].Pos)
}

func TestLexErrors(t *testing.T) {
	for _, src := range []string{"/* open", `"open`, `r#"open"`} {
		_, _, err := Lex(src)
		assert.Error(t, err, src)
	}
}
