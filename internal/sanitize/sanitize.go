// Package sanitize renders operator-authored text safely. Tour and activity
// descriptions are written in Markdown in the backend; they are rendered
// with blackfriday and then passed through a bluemonday policy that strips
// scripts, event handlers and javascript: URLs before reaching a page.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Shared policies, initialized once on first use.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once

	strict     *bluemonday.Policy
	strictOnce sync.Once
)

// getPolicy returns the policy for rendered descriptions.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Links in descriptions point off-site (company pages, maps).
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)

		policy.AllowElements("table", "thead", "tbody", "tr", "td", "th")
	})
	return policy
}

// getStrict returns the policy that removes every tag.
func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// HTML sanitizes an HTML fragment for rendering.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getPolicy().Sanitize(input)
}

// Markdown renders Markdown to sanitized HTML.
func Markdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	rendered := blackfriday.Run([]byte(input),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.HardLineBreak),
	)
	return string(getPolicy().SanitizeBytes(rendered))
}

// PlainText reduces Markdown or HTML to readable text for exports that
// cannot carry markup (iCalendar, CSV).
func PlainText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	rendered := blackfriday.Run([]byte(input))
	text := html.UnescapeString(string(getStrict().SanitizeBytes(rendered)))
	return strings.TrimSpace(collapseBlankLines(text))
}

// collapseBlankLines squeezes runs of blank lines left behind by removed
// block elements into a single blank line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
