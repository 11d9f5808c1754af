package router

import (
	"strings"
)

// Decision is the outcome of classifying one submission.
type Decision struct {
	Route        Route
	Trigger      string // matched phrase, empty for chat or document mode
	Topic        string // document topic, set only for RouteDocument
	ForcedByMode bool   // document mode was active
}

// Router classifies free text against an ordered rule table.
// The table is data so it can be swapped without touching the workflows.
type Router struct {
	rules        []Rule
	defaultTopic string
}

func NewRouter(rules []Rule, defaultTopic string) *Router {
	if rules == nil {
		rules = DefaultRules
	}
	return &Router{
		rules:        rules,
		defaultTopic: defaultTopic,
	}
}

// Classify applies, in order: the sticky document mode, then the rule table,
// then falls back to plain chat.
func (r *Router) Classify(text string, hasAttachment, documentMode bool) *Decision {
	trimmed := strings.TrimSpace(text)

	if documentMode {
		topic := trimmed
		if topic == "" {
			topic = r.defaultTopic
		}
		return &Decision{Route: RouteDocument, Topic: topic, ForcedByMode: true}
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range r.rules {
		phrase := rule.Match(lower, hasAttachment)
		if phrase == "" {
			continue
		}
		decision := &Decision{Route: rule.Route, Trigger: phrase}
		if rule.Route == RouteDocument {
			decision.Topic = ExtractTopic(trimmed, phrase, r.defaultTopic)
		}
		return decision
	}

	return &Decision{Route: RouteChat}
}

// Title is the compiled document title for a topic.
func Title(topic string) string {
	return strings.ToUpper(topic)
}
