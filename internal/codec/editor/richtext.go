package editor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// blockTags are elements whose boundaries collapse to newlines when rich text
// is reduced to plain text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "blockquote": true,
}

var backgroundImageRe = regexp.MustCompile(`background-image\s*:\s*url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// ReduceRichText reduces one rich-text response block to editor entries.
// Inline image references (img tags and background-image style references)
// become their own image entries, stripped from the surrounding text; block
// tags become newlines; all other markup is dropped.
func ReduceRichText(content string) []Entry {
	if content == "" {
		return nil
	}
	if !strings.ContainsRune(content, '<') {
		return []Entry{{Kind: EntryText, Content: content}}
	}

	var out []Entry
	var text strings.Builder
	flush := func() {
		if s := tidy(text.String()); s != "" {
			out = append(out, Entry{Kind: EntryText, Content: s})
		}
		text.Reset()
	}

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return out
		case html.TextToken:
			text.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "img" {
				if src := attr(tok, "src"); src != "" {
					flush()
					out = append(out, Entry{Kind: EntryImage, Content: src})
				}
				continue
			}
			if style := attr(tok, "style"); style != "" {
				if m := backgroundImageRe.FindStringSubmatch(style); m != nil {
					flush()
					out = append(out, Entry{Kind: EntryImage, Content: m[1]})
				}
			}
			if blockTags[tok.Data] {
				text.WriteByte('\n')
			}
		case html.EndTagToken:
			tok := z.Token()
			if blockTags[tok.Data] {
				text.WriteByte('\n')
			}
		}
	}
}

// tidy trims outer whitespace and collapses runs of blank lines left behind
// by adjacent block tags.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
