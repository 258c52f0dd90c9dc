// Package markdown renders backend-authored HTML into the markdown dialect
// understood by Teams text blocks.
//
// The conversion is a fixed sequence of textual substitutions over a small tag
// allowlist. It does not build a DOM: inputs are produced by the backend and
// stay within the allowlist, and anything outside it is dropped.
package markdown

import (
	"html"
	"regexp"
	"strings"
)

var allowed = map[string]bool{
	"a": true, "b": true, "br": true, "code": true, "del": true, "em": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "i": true, "li": true,
	"p": true, "pre": true, "s": true, "strong": true, "ul": true,
}

var (
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagPattern     = regexp.MustCompile(`(?s)<(/?)([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)
	markupPattern  = regexp.MustCompile(`<(?:/?[a-zA-Z][a-zA-Z0-9]*\b[^>]*|!--.*?--)>`)
	anchorPattern  = regexp.MustCompile(`(?si)<a\b[^>]*?href=(?:"([^"]*?)"|'([^']*?)'|([^\s>]+))[^>]*>(.*?)</a>`)
	leftoverAnchor = regexp.MustCompile(`(?i)</?a\b[^>]*>`)
	entityPattern  = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);?`)
)

var (
	escapeAngles   = strings.NewReplacer("<", "&lt;", ">", "&gt;")
	unescapeAngles = strings.NewReplacer("&lt;", "<", "&gt;", ">")
)

var substitutions = strings.NewReplacer(
	"<br>", "\n",
	"<strong>", "**", "</strong>", "**",
	"<b>", "**", "</b>", "**",
	"<h1>", "**", "</h1>", "**",
	"<h2>", "**", "</h2>", "**",
	"<h3>", "**", "</h3>", "**",
	"<h4>", "**", "</h4>", "**",
	"<p>", "", "</p>", "\r",
	"<em>", "_", "</em>", "_",
	"<i>", "_", "</i>", "_",
	"<del>", "~", "</del>", "~",
	"<s>", "~", "</s>", "~",
	"<li>", "* ", "</li>", "\n",
	"<ul>", "\r", "</ul>", "\r",
	"<code>", "`", "</code>", "`",
	"<pre>", "```", "</pre>", "```",
)

// HasMarkup reports whether text contains at least one HTML tag or comment.
func HasMarkup(text string) bool {
	return markupPattern.MatchString(text)
}

// ToMarkdown converts an HTML fragment into markdown.
//
// Text without markup is only entity-decoded, so running ToMarkdown on its own
// output leaves the line breaks it produced in place.
func ToMarkdown(text string) string {
	if !HasMarkup(text) {
		return decodeEntities(text)
	}

	content := commentPattern.ReplaceAllString(text, "")
	content = tagPattern.ReplaceAllStringFunc(content, normalizeTag)

	// Source newlines and tabs are layout, not content.
	content = strings.NewReplacer("\n", "", "\t", "").Replace(content)
	content = substitutions.Replace(content)

	content = anchorPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := anchorPattern.FindStringSubmatch(match)
		href := groups[1] + groups[2] + groups[3]
		return "[" + groups[4] + "](" + href + ")"
	})
	content = leftoverAnchor.ReplaceAllString(content, "")

	return decodeEntities(content)
}

// decodeEntities resolves character references. Encoded angle brackets are
// decoded only when that cannot form a tag, so the result never carries markup
// the input did not.
func decodeEntities(text string) string {
	kept := entityPattern.ReplaceAllStringFunc(text, func(entity string) string {
		return escapeAngles.Replace(html.UnescapeString(entity))
	})
	if decoded := unescapeAngles.Replace(kept); !HasMarkup(decoded) {
		return decoded
	}
	return kept
}

// normalizeTag drops tags outside the allowlist and strips attributes from the
// rest. Anchors keep their attributes for the href rewrite.
func normalizeTag(tag string) string {
	parts := tagPattern.FindStringSubmatch(tag)
	closing, name := parts[1], strings.ToLower(parts[2])
	if !allowed[name] {
		return ""
	}
	if name == "a" {
		return tag
	}
	if name == "br" {
		return "<br>"
	}
	return "<" + closing + name + ">"
}
