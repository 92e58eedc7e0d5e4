package scanner_test

import (
	"testing"

	"github.com/mna/aster/lang/scanner"
	"github.com/mna/aster/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Lexeme {
	t.Helper()
	var s scanner.Scanner
	s.Init(src)

	var out []token.Lexeme
	for {
		lex := s.Scan()
		out = append(out, lex)
		if lex.Token == token.EOF {
			return out
		}
	}
}

func TestScanPunctuation(t *testing.T) {
	lexs := scanAll(t, "(){};,.+-*/! = == != < <= > >=")
	want := []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMI,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.BANG, token.EQ, token.EQL, token.BANG_EQ, token.LT, token.LE,
		token.GT, token.GE, token.EOF,
	}
	require.Len(t, lexs, len(want))
	for i, w := range want {
		require.Equalf(t, w, lexs[i].Token, "token %d", i)
	}
}

func TestScanKeywordsAndIdents(t *testing.T) {
	lexs := scanAll(t, "and class myVar _x2 while")
	want := []token.Token{token.AND, token.CLASS, token.IDENT, token.IDENT, token.WHILE, token.EOF}
	for i, w := range want {
		require.Equalf(t, w, lexs[i].Token, "token %d", i)
	}
	require.Equal(t, "myVar", lexs[2].Text)
	require.Equal(t, "_x2", lexs[3].Text)
}

func TestScanNumbers(t *testing.T) {
	lexs := scanAll(t, "123 1.5 0.001")
	require.Equal(t, token.NUMBER, lexs[0].Token)
	require.Equal(t, "123", lexs[0].Text)
	require.Equal(t, "1.5", lexs[1].Text)
	require.Equal(t, "0.001", lexs[2].Text)
}

func TestScanString(t *testing.T) {
	lexs := scanAll(t, `"hello world"`)
	require.Equal(t, token.STRING, lexs[0].Token)
	require.Equal(t, `"hello world"`, lexs[0].Text)
}

func TestScanMultilineString(t *testing.T) {
	lexs := scanAll(t, "\"line one\nline two\"\nprint 1;")
	require.Equal(t, token.STRING, lexs[0].Token)
	require.Equal(t, token.PRINT, lexs[1].Token)
	// the print keyword starts on line 3, after the 2-line string literal
	require.Equal(t, 3, lexs[1].Line)
}

func TestScanUnterminatedString(t *testing.T) {
	lexs := scanAll(t, `"unterminated`)
	require.Equal(t, token.ILLEGAL, lexs[0].Token)
	require.Equal(t, "unterminated string", lexs[0].Text)
}

func TestScanComments(t *testing.T) {
	lexs := scanAll(t, "// a comment\nvar x; // trailing\n")
	require.Equal(t, token.VAR, lexs[0].Token)
	require.Equal(t, 2, lexs[0].Line)
}

func TestScanUnexpectedChar(t *testing.T) {
	lexs := scanAll(t, "@")
	require.Equal(t, token.ILLEGAL, lexs[0].Token)
	require.Equal(t, "unexpected character", lexs[0].Text)
}

func TestScanEOFRepeats(t *testing.T) {
	var s scanner.Scanner
	s.Init("")
	require.Equal(t, token.EOF, s.Scan().Token)
	require.Equal(t, token.EOF, s.Scan().Token)
}
