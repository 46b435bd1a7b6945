package faq

import "testing"

func TestNormalizeQuestion(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "trims whitespace", in: "  Hello World  ", out: "hello world"},
		{name: "removes punctuation", in: "What's, the balance?", out: "what s the balance"},
		{name: "collapses runs", in: "how   to \t open", out: "how to open"},
		{name: "empty", in: "  ", out: ""},
	}

	for _, tc := range cases {
		if got := normalizeQuestion(tc.in); got != tc.out {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.out, got)
		}
	}
}

func TestTokensDropStopWords(t *testing.T) {
	set := tokens("how to open my account please")
	for _, banned := range []string{"to", "my", "please"} {
		if _, ok := set[banned]; ok {
			t.Fatalf("stop word %q survived", banned)
		}
	}
	for _, kept := range []string{"how", "open", "account"} {
		if _, ok := set[kept]; !ok {
			t.Fatalf("content word %q dropped", kept)
		}
	}
}
