package issueid

import "testing"

func TestExtract(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"TIM-1", "TIM-1"},
		{"[TIM-1] Fix login flow", "TIM-1"},
		{"ENG-1234: investigate", "ENG-1234"},
		{"A2B-77 mixed key", "A2B-77"},
		{"no identifier here", ""},
		{"lowercase tim-1 does not count", ""},
		{"X-1 single-letter key does not count", ""},
		{"TIM-1 and TIM-2 returns the first", "TIM-1"},
	}
	for _, c := range cases {
		if got := Extract(c.in); got != c.want {
			t.Fatalf("Extract(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMatchInTitle(t *testing.T) {
	if !MatchInTitle("[TIM-1] foo", "TIM-1") { t.Fatal("expected match") }
	if !MatchInTitle("renamed but mentions TIM-1 still", "TIM-1") { t.Fatal("expected substring match") }
	if MatchInTitle("other task", "TIM-1") { t.Fatal("unexpected match") }
	if MatchInTitle("[TIM-1] foo", "") { t.Fatal("empty id must not match") }
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{600, "00:10:00"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
		{-5, "00:00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
