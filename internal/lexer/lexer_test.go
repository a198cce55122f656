package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allTokens(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

func TestIdentAndKeywords(t *testing.T) {
	toks := allTokens("func foo class bar")
	assert.Equal(t, FUNC, toks[0].Type)
	assert.Equal(t, IDENT, toks[1].Type)
	assert.Equal(t, "foo", toks[1].Literal)
	assert.Equal(t, CLASS, toks[2].Type)
	assert.Equal(t, IDENT, toks[3].Type)
}

func TestNumberLiterals(t *testing.T) {
	toks := allTokens("42 42u 3.14")
	assert.Equal(t, INT, toks[0].Type)
	assert.Equal(t, "42", toks[0].Literal)
	assert.Equal(t, UINT, toks[1].Type)
	assert.Equal(t, "42", toks[1].Literal)
	assert.Equal(t, FLOAT, toks[2].Type)
	assert.Equal(t, "3.14", toks[2].Literal)
}

func TestStringAndCharLiterals(t *testing.T) {
	toks := allTokens(`"hello\n" 'a' '\t'`)
	assert.Equal(t, STRING, toks[0].Type)
	assert.Equal(t, "hello\n", toks[0].Literal)
	assert.Equal(t, CHAR, toks[1].Type)
	assert.Equal(t, "a", toks[1].Literal)
	assert.Equal(t, CHAR, toks[2].Type)
	assert.Equal(t, "\t", toks[2].Literal)
}

func TestOperatorsAndPunctuation(t *testing.T) {
	toks := allTokens("-> :: == != <= >= && || !")
	want := []TokenType{ARROW, COLONCOLON, EQ, NEQ, LTE, GTE, AMPAMP, PIPEPIPE, BANG, EOF}
	for i, w := range want {
		assert.Equal(t, w, toks[i].Type)
	}
}

func TestLineCommentSkipped(t *testing.T) {
	toks := allTokens("let x = 1; // comment\nlet y = 2;")
	assert.Equal(t, LET, toks[0].Type)
	found := false
	for _, tok := range toks {
		if tok.Literal == "comment" {
			found = true
		}
	}
	assert.False(t, found)
}

func TestBlockCommentSkipped(t *testing.T) {
	toks := allTokens("let /* skip me */ x = 1;")
	assert.Equal(t, LET, toks[0].Type)
	assert.Equal(t, IDENT, toks[1].Type)
	assert.Equal(t, "x", toks[1].Literal)
}

func TestSpanTracksLineAndColumn(t *testing.T) {
	toks := allTokens("let\nx")
	assert.Equal(t, 1, toks[0].Span.Line)
	assert.Equal(t, 2, toks[1].Span.Line)
}

func TestIllegalCharacter(t *testing.T) {
	toks := allTokens("@")
	assert.Equal(t, ILLEGAL, toks[0].Type)
	assert.Equal(t, "@", toks[0].Literal)
}
