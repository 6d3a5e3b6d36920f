package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ucicrawl/ucicrawl/internal/tokenizer"
)

// ErrParse is returned when a document cannot be parsed as HTML.
var ErrParse = errors.New("parse failed")

// ParseResult contains what the crawler needs from one HTML page.
type ParseResult struct {
	// Title is the text of the first <title> element.
	Title string

	// Hrefs are the raw href values of every <a> element, in document order.
	// They are not resolved or validated.
	Hrefs []string

	// Tokens are the words of the visible text, in document order.
	Tokens []string
}

// skippedElements hold text that is never rendered as page content.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// ParsePage extracts the title, hyperlinks and visible words of content.
//
// Design decision: Links are extracted through goquery while the text is
// streamed through the x/net/html tokenizer into a tokenizer.Scanner. The
// text pass never builds a tree, so even a page at the body size limit is
// tokenized in bounded extra memory.
func ParsePage(content []byte) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	result := &ParseResult{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Hrefs: make([]string, 0),
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			result.Hrefs = append(result.Hrefs, href)
		}
	})

	tokens, err := extractTokens(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	result.Tokens = tokens
	return result, nil
}

// extractTokens tokenizes the text nodes of an HTML stream. Every tag ends
// the current word, so "<p>one</p><p>two</p>" yields two tokens.
func extractTokens(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)
	s := tokenizer.NewScanner()
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return s.Flush(), nil
			}
			return s.Flush(), z.Err()

		case html.TextToken:
			if skipDepth == 0 {
				_, _ = s.Write(z.Text()) //nolint:errcheck // Scanner.Write never fails
			}

		case html.StartTagToken:
			name, _ := z.TagName()
			if _, skip := skippedElements[string(name)]; skip {
				skipDepth++
			}
			s.Break()

		case html.EndTagToken:
			name, _ := z.TagName()
			if _, skip := skippedElements[string(name)]; skip && skipDepth > 0 {
				skipDepth--
			}
			s.Break()

		case html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
			s.Break()
		}
	}
}
