package token

import (
	"errors"
	"testing"
)

func TestStatic(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		fails bool
	}{
		{"raw token gets prefix", "abc.def.ghi", "Bot abc.def.ghi", false},
		{"prefixed token untouched", "Bot abc.def.ghi", "Bot abc.def.ghi", false},
		{"surrounding whitespace trimmed", "  abc  ", "Bot abc", false},
		{"empty token rejected", "", "", true},
		{"whitespace-only rejected", "   ", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Static(tc.in)
			if tc.fails {
				if !errors.Is(err, ErrEmptyToken) {
					t.Fatalf("err = %v, want ErrEmptyToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := p.Authorization(); got != tc.want {
				t.Errorf("Authorization() = %q, want %q", got, tc.want)
			}
		})
	}
}
