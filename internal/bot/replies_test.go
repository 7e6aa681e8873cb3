package bot

import (
	"strings"
	"testing"

	"partyup/internal/matching"
)

func TestExactSummaryText_CapsListButCountsAll(t *testing.T) {
	matches := []matching.Match{
		{Username: "a", CommonGames: []string{"Hades"}},
		{Username: "b", CommonGames: []string{"Hades"}},
		{Username: "c", CommonGames: []string{"Hades"}},
		{Username: "d", CommonGames: []string{"Hades"}},
	}

	text := exactSummaryText(matches)
	if !strings.Contains(text, "Found 4 players") {
		t.Errorf("expected full count in summary, got %q", text)
	}
	if strings.Contains(text, "· d") {
		t.Errorf("expected list capped at 3, got %q", text)
	}
}

func TestMatchCardText_ScorePercent(t *testing.T) {
	m := matching.Match{Username: "bob", Score: 0.72, CommonGames: []string{"Hades", "Celeste"}}

	text := matchCardText(m, "because")
	if !strings.Contains(text, "Match score: 72%") {
		t.Errorf("expected 72%% score, got %q", text)
	}
	if !strings.Contains(text, "Common games: Hades, Celeste") {
		t.Errorf("expected common games list, got %q", text)
	}
}
