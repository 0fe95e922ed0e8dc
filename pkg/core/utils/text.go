package utils

import (
	"fmt"
	"regexp"
	"strings"

	"credit_appraisal/pkg/core/schema"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var htmlTagPattern = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?\s*>`)

// markupElements are the tags analysts paste into commentary. Anything else
// that parses as an element ("ICR<peers and margin>3x") is treated as prose.
var markupElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "blockquote": true, "br": true,
	"code": true, "div": true, "em": true, "font": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"i": true, "li": true, "ol": true, "p": true, "pre": true, "s": true,
	"small": true, "span": true, "strike": true, "strong": true, "sub": true,
	"sup": true, "table": true, "tbody": true, "td": true, "th": true,
	"thead": true, "tr": true, "u": true, "ul": true,
	"script": true, "style": true,
}

// StripHTML returns the visible text of an HTML fragment. Text is returned
// as-is unless every element in it is ordinary markup, so "a < b" and
// "Gearing<peers and ICR>3x" survive.
func StripHTML(s string) (string, error) {
	if !htmlTagPattern.MatchString(s) {
		return s, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	markup := true
	doc.Find("head *, body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		markup = markupElements[goquery.NodeName(sel)]
		return markup
	})
	if !markup {
		return s, nil
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li, tr, td, th, h1, h2, h3, h4, h5, h6").AppendHtml(" ")

	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// CleanText normalises narrative text before it is escaped.
func CleanText(s string, opts schema.Cleanup) string {
	if opts.UnicodeNFC {
		s = norm.NFC.String(s)
	}
	if opts.StripHTML {
		if stripped, err := StripHTML(s); err == nil {
			s = stripped
		}
	}
	if opts.StripMarkdownEmphasis {
		s = strings.ReplaceAll(s, "**", "")
	}
	return s
}
