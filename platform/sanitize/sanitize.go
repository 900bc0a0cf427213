// Package sanitize turns untrusted markup into plain text.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// blockElements end a line when they open or close, so label/value rows in
// e-mail tables stay on separate lines after conversion.
var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "tr": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "table": true,
}

// HTMLToText converts an HTML document into line-oriented text. Table cells on
// the same row are joined with a tab. Script and style contents are dropped.
func HTMLToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return tidyLines(b.String())
		case html.TextToken:
			if skip > 0 {
				continue
			}
			b.WriteString(string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case tag == "td" || tag == "th":
				if tt == html.EndTagToken {
					b.WriteByte('\t')
				}
			case blockElements[tag]:
				b.WriteByte('\n')
			}
		}
	}
}

// StripHTML removes all markup and collapses the result onto one line.
func StripHTML(s string) string {
	return strings.Join(strings.Fields(HTMLToText(s)), " ")
}

// Text sanitizes a string for safe text storage. Use for free text that
// ends up in logs or notification bodies.
func Text(s string) string {
	return StripHTML(s)
}

func tidyLines(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(strings.TrimSpace(line), "\t")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
