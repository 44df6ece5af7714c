package ingest

import (
	"strings"

	"github.com/brandpulse/brandpulse/app/database"
)

// categoryRule pairs an update type with its trigger keywords. Rules
// are evaluated top to bottom and the first matching group wins, so
// adding a category is appending a row.
type categoryRule struct {
	updateType string
	keywords   []string
}

var categoryRules = []categoryRule{
	{database.UpdateTypeProductLaunch, []string{"launch", "drop", "release", "debut", "unveil"}},
	{database.UpdateTypeCollection, []string{"collection", "season", "fall", "spring", "summer", "winter", "fw", "ss"}},
	{database.UpdateTypeCollaboration, []string{"collab", "partnership", "x ", "collaboration"}},
	{database.UpdateTypeEvent, []string{"event", "show", "fashion week", "runway", "exhibition"}},
	{database.UpdateTypePressRelease, []string{"press release", "announces", "statement"}},
}

// Classify assigns a coarse update category from keyword heuristics
// over title and body. Group precedence is fixed regardless of where
// in the text a keyword appears.
func Classify(title, body string) string {
	text := strings.ToLower(title + " " + body)

	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.updateType
			}
		}
	}

	return database.UpdateTypeGeneral
}
