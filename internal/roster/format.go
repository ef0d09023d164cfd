package roster

import (
	"fmt"
	"strings"
	"time"
)

// clockFormat renders "6:30PM" (no leading zero).
const clockFormat = "3:04PM"

// FormatDayReminder is the morning-of-deadline message.
func FormatDayReminder(gameweek int, deadline time.Time) string {
	return fmt.Sprintf("⏰ Gameweek %d starts today - transfer deadline is %s",
		gameweek, deadline.Format(clockFormat))
}

// FormatHourReminder is the one-hour warning.
func FormatHourReminder(gameweek int) string {
	return fmt.Sprintf("⚠️ Warning - one hour until Gameweek %d deadline", gameweek)
}

// FormatTeam renders one team's section of the transfers summary.
// names maps element ids to display names; unknown ids render as "#<id>".
func FormatTeam(ch Changes, names map[int]string) string {
	sections := []string{fmt.Sprintf("**%s**", ch.TeamName)}

	if len(ch.In)+len(ch.Out) > 0 {
		sections = append(sections,
			"❌ "+joinNames(ch.Out, names),
			"✅ "+joinNames(ch.In, names),
		)
	} else {
		sections = append(sections, "*No transfers in gameweek*")
	}

	if ch.Captain != 0 || ch.ViceCaptain != 0 {
		sections = append(sections, fmt.Sprintf("🅲 %s (C), %s (VC)",
			displayName(ch.Captain, names), displayName(ch.ViceCaptain, names)))
	}

	if ch.Chip != "" {
		sections = append(sections, fmt.Sprintf("*%s active in %s gameweek*", ch.Chip, ch.ChipWhen))
	}

	return strings.Join(sections, "\n")
}

// FormatSummary renders the full gameweek transfers message.
func FormatSummary(gameweek int, teamSections []string) string {
	return fmt.Sprintf("👋 Gameweek %d transfers\n%s", gameweek, strings.Join(teamSections, "\n"))
}

func joinNames(ids []int, names map[int]string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, displayName(id, names))
	}
	return strings.Join(parts, " | ")
}

func displayName(id int, names map[int]string) string {
	if id == 0 {
		return "-"
	}
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("#%d", id)
}
