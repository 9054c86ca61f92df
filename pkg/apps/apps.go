// Package apps classifies phone app names as work tools or distractions and
// supplies friendly display phrases for synthesized screen-time blocks.
// Classification is a plain lookup table on normalized app names, optionally
// shadowed by a per-user override map.
package apps

import "strings"

// Class is an app's work/distraction status.
type Class int

// App classes.
const (
	ClassNeutral Class = iota
	ClassWork
	ClassDistraction
)

func (c Class) String() string {
	switch c {
	case ClassWork:
		return "work"
	case ClassDistraction:
		return "distraction"
	default:
		return "neutral"
	}
}

// Overrides remaps app names for one user. Keys are normalized with the same
// rules as Classify's input.
type Overrides map[string]Class

// distractionDefaults covers the usual suspects. Matched on normalized name.
var distractionDefaults = map[string]bool{
	"youtube":    true,
	"instagram":  true,
	"tiktok":     true,
	"reddit":     true,
	"twitter":    true,
	"x":          true,
	"facebook":   true,
	"snapchat":   true,
	"netflix":    true,
	"twitch":     true,
	"primevideo": true,
	"9gag":       true,
	"pinterest":  true,
	"candycrush": true,
}

var workDefaults = map[string]bool{
	"slack":    true,
	"gmail":    true,
	"outlook":  true,
	"mail":     true,
	"calendar": true,
	"notion":   true,
	"docs":     true,
	"sheets":   true,
	"drive":    true,
	"zoom":     true,
	"teams":    true,
	"meet":     true,
	"linear":   true,
	"jira":     true,
	"github":   true,
	"terminal": true,
}

// friendlyPhrases gives synthesized blocks a human title. Apps not listed
// fall back to "Time on <App>".
var friendlyPhrases = map[string]string{
	"youtube":   "YouTube rabbit hole",
	"instagram": "Instagram scrolling",
	"tiktok":    "TikTok scrolling",
	"reddit":    "Reddit browsing",
	"twitter":   "Twitter doomscrolling",
	"x":         "Twitter doomscrolling",
	"netflix":   "Netflix session",
	"twitch":    "Twitch watching",
	"facebook":  "Facebook scrolling",
	"slack":     "Slack catch-up",
	"gmail":     "Inbox triage",
}

// Normalize lowercases and strips spaces, dots and dashes so "Candy Crush"
// and "candy-crush" hit the same table entry.
func Normalize(app string) string {
	s := strings.ToLower(strings.TrimSpace(app))
	return strings.NewReplacer(" ", "", ".", "", "-", "", "_", "").Replace(s)
}

// Classify returns the app's class, consulting per-user overrides first.
func Classify(app string, ov Overrides) Class {
	key := Normalize(app)
	if ov != nil {
		if c, exists := ov[key]; exists {
			return c
		}
	}
	if distractionDefaults[key] {
		return ClassDistraction
	}
	if workDefaults[key] {
		return ClassWork
	}
	return ClassNeutral
}

// FriendlyPhrase returns a display title for a block dominated by this app.
func FriendlyPhrase(app string) string {
	if p, exists := friendlyPhrases[Normalize(app)]; exists {
		return p
	}
	return "Time on " + Display(app)
}

// Display returns a presentable app name: trimmed, first letter upcased.
func Display(app string) string {
	s := strings.TrimSpace(app)
	if s == "" {
		return "Phone"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
