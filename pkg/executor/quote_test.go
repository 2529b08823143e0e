package executor

import "testing"

func TestQuote(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ha", "ha"},
		{"--no-progress", "--no-progress"},
		{"nightly-2026-03-07", "nightly-2026-03-07"},
		{"name with spaces", "'name with spaces'"},
		{"it's", `'it'\''s'`},
		{"a;b", "'a;b'"},
		{"$HOME", "'$HOME'"},
		{"", "''"},
	}
	for _, c := range cases {
		if got := Quote(c.in); got != c.want {
			t.Errorf("Quote(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestQuoteAll(t *testing.T) {
	got := QuoteAll([]string{"ha", "backups", "new", "--name", "daily backup"})
	want := "ha backups new --name 'daily backup'"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
