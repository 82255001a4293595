package handlers

import "testing"

func TestLooksLikeRemoteURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/page", true},
		{"  HTTPS://EXAMPLE.COM  ", true},
		{"<html><body>hi</body></html>", false},
		{"", false},
		{"httpfoo not a url", false},
	}
	for _, c := range cases {
		if got := looksLikeRemoteURL(c.in); got != c.want {
			t.Errorf("looksLikeRemoteURL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
