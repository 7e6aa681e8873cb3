package bot

import (
	"fmt"
	"strings"

	"partyup/internal/matching"
)

// User-facing reply texts.
const (
	welcomeText = "🎮 Welcome to the Game Partner Matching Bot!\n\n" +
		"Please tell me the games or game genres you like, for example:\n" +
		"· I like Genshin Impact and Honor of Kings\n" +
		"· I often play survival horror and open-world games\n" +
		"· Recently playing Elden Ring and Stardew Valley"

	noInterestsText = "⚠️ No valid game interests recognized, please try a more specific description (e.g., game name or genre)"
	saveFailedText  = "❌ Failed to save interests, please try again later"
	busyText        = "🌀 Service temporarily unavailable, please try again later"
	noMatchesText   = "No matching players found for now, we will keep looking for you!"
)

// shownMatches is how many matches are surfaced in each reply section.
const shownMatches = 3

// exactSummaryText lists matches that share games with the user.
func exactSummaryText(matches []matching.Match) string {
	shown := matches
	if len(shown) > shownMatches {
		shown = shown[:shownMatches]
	}

	lines := make([]string, 0, len(shown))
	for _, m := range shown {
		lines = append(lines, fmt.Sprintf("· %s (Common interests: %s)", m.Username, strings.Join(m.CommonGames, ", ")))
	}
	return fmt.Sprintf("🎉 Found %d players with similar interests:\n%s", len(matches), strings.Join(lines, "\n"))
}

// matchCardText renders one recommendation card.
func matchCardText(m matching.Match, reason string) string {
	common := "None"
	if len(m.CommonGames) > 0 {
		common = strings.Join(m.CommonGames, ", ")
	}
	return fmt.Sprintf(
		"🌟 Recommended player: %s\n"+
			"📈 Match score: %.0f%%\n"+
			"🎮 Common games: %s\n"+
			"💡 Recommendation reason: %s",
		m.Username, m.Score*100, common, reason)
}
