// Package extract turns fetched HTML into plain page text.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
)

// boilerplate is removed before plain-text extraction.
const boilerplate = "script, style, nav, footer, header"

type Page struct {
	Title string
	Text  string
}

// Text strips boilerplate elements and returns the remaining text nodes
// joined by single spaces.
func Text(html string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	title := helpers.CollapseWhitespace(doc.Find("title").First().Text())
	doc.Find(boilerplate).Remove()
	doc.Find("title, noscript, template").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return Page{Title: title, Text: helpers.CollapseWhitespace(strings.Join(parts, " "))}, nil
}

func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			if t := strings.TrimSpace(c.Text()); t != "" {
				*parts = append(*parts, t)
			}
		case "#comment":
		default:
			collectText(c, parts)
		}
	})
}

// Readable extracts the main article with readability and falls back to Text
// when readability fails or finds nothing.
func Readable(html, pageURL string) (Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err == nil {
		text := helpers.CollapseWhitespace(article.TextContent)
		if text != "" {
			return Page{Title: strings.TrimSpace(article.Title), Text: text}, nil
		}
	}
	return Text(html)
}

// HTML picks Readable when enhanced is set and Text otherwise.
func HTML(html, pageURL string, enhanced bool) (Page, error) {
	if enhanced {
		return Readable(html, pageURL)
	}
	return Text(html)
}
