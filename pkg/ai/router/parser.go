package router

import (
	"regexp"
	"strings"
)

// Route names the workflow a submission is dispatched to.
type Route string

const (
	RouteChat     Route = "CHAT"
	RouteDocument Route = "DOCUMENT"
	RouteImage    Route = "IMAGE"
)

// Rule maps a set of case-insensitive substrings to a route.
// RequiresAttachment rules only match when the user attached an image.
type Rule struct {
	Route              Route
	Phrases            []string
	RequiresAttachment bool
}

// DefaultRules - ORDER MATTERS, first match wins.
var DefaultRules = []Rule{
	{
		Route:   RouteDocument,
		Phrases: []string{"criar um pdf", "gere um pdf", "crie um pdf", "gerar um pdf"},
	},
	{
		Route:   RouteImage,
		Phrases: []string{"crie uma imagem", "gere uma imagem", "desenhe"},
	},
	{
		Route: RouteImage,
		Phrases: []string{
			"editar", "edite", "adicione", "mude", "transforme", "deixe",
			"edit", "add", "change", "transform", "make it",
		},
		RequiresAttachment: true,
	},
}

const topicConnector = "sobre"

// Match returns the first phrase of the rule found in lower, or "".
func (r Rule) Match(lower string, hasAttachment bool) string {
	if r.RequiresAttachment && !hasAttachment {
		return ""
	}
	for _, phrase := range r.Phrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

// ExtractTopic strips the trigger phrase and the first "sobre" from text.
// Both removals are case-insensitive; an empty result yields fallback.
func ExtractTopic(text, trigger, fallback string) string {
	topic := text
	if trigger != "" {
		topic = removeFirstFold(topic, trigger)
	}
	topic = strings.TrimSpace(removeFirstFold(topic, topicConnector))
	if topic == "" {
		return fallback
	}
	return topic
}

func removeFirstFold(s, sub string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(sub))
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
