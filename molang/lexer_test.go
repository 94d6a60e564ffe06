package molang

import "testing"

func lexAll(t *testing.T, source string) []Token {
	t.Helper()
	l := newLexer(source)
	var toks []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Type == tokenEOF {
			return toks
		}
	}
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll(t, "?? ? == != <= >= && || < >")
	wantTypes := []TokenType{tokenCoalesce, tokenQuestion, tokenEQ, tokenNotEQ, tokenLTE, tokenGTE, tokenAnd, tokenOr, tokenLT, tokenGT, tokenEOF}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(wantTypes))
	}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, want)
		}
	}
}

func TestLexerComment(t *testing.T) {
	toks := lexAll(t, "1 # this is a comment\n+ 2")
	if len(toks) != 4 { // FLOAT, +, FLOAT, EOF
		t.Fatalf("comment was not skipped, got %d tokens: %+v", len(toks), toks)
	}
}

func TestLexerNumberWithExponent(t *testing.T) {
	toks := lexAll(t, "1e10 2.5e-3 3E+2")
	for i, want := range []string{"1e10", "2.5e-3", "3e+2"} {
		if toks[i].Literal != want {
			t.Errorf("token %d literal = %q, want %q", i, toks[i].Literal, want)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := lexAll(t, `"a\nb\tc\\d\"e"`)
	want := "a\nb\tc\\d\"e"
	if toks[0].Literal != want {
		t.Errorf("string literal = %q, want %q", toks[0].Literal, want)
	}
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	toks := lexAll(t, "temp.x variable.y loop for_each break continue return null")
	wantTypes := []TokenType{
		tokenIdent, tokenDot, tokenIdent,
		tokenIdent, tokenDot, tokenIdent,
		tokenLoop, tokenForEach, tokenBreak, tokenContinue, tokenReturn, tokenNull, tokenEOF,
	}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantTypes), toks)
	}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, want)
		}
	}
}
