package models

import "testing"

func TestGenerationHasDeck(t *testing.T) {
	cases := []struct {
		status string
		deck   string
		want   bool
	}{
		{StatusPending, "", false},
		{StatusRunning, "", false},
		{StatusDone, `{"id":"gen-1"}`, true},
		{StatusRunning, `{"id":"gen-1"}`, true},
		{StatusError, `{"id":"gen-1"}`, true},
	}
	for _, c := range cases {
		g := &Generation{Status: c.status}
		if c.deck != "" {
			g.Deck = []byte(c.deck)
		}
		if got := g.HasDeck(); got != c.want {
			t.Errorf("HasDeck() for %s with deck %q = %v, want %v", c.status, c.deck, got, c.want)
		}
	}
}
