package router

import (
	"regexp"
	"strings"
)

var siteMarkers = []string{"```html", "<!DOCTYPE html>"}

var fencedHTML = regexp.MustCompile("(?s)```html\\s*\\n(.*?)```")

// ContainsSite reports whether a reply embeds a complete markup document.
func ContainsSite(text string) bool {
	for _, marker := range siteMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ExtractSite returns the markup carried by a reply: the first fenced html
// block, or everything from the doctype on. ok is false for plain replies.
func ExtractSite(text string) (markup string, ok bool) {
	if m := fencedHTML.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if i := strings.Index(text, "<!DOCTYPE html>"); i >= 0 {
		markup = text[i:]
		if end := strings.LastIndex(markup, "</html>"); end >= 0 {
			markup = markup[:end+len("</html>")]
		}
		return markup, true
	}
	return "", false
}
