package catalog

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markup is an opaque handle on a fetched board page, passed to the
// availability classifier. It keeps the parsed document internal so the
// orchestrators stay schema-agnostic.
type Markup struct {
	url string
	doc *goquery.Document
}

// Has reports whether the markup contains an element matching the
// given CSS selector. Custom classifiers can probe the page with it.
func (m Markup) Has(selector string) bool {
	return m.doc != nil && m.doc.Find(selector).Length() > 0
}

// Title returns the page title, if any.
func (m Markup) Title() string {
	if m.doc == nil {
		return ""
	}
	return strings.TrimSpace(m.doc.Find("title").First().Text())
}

var (
	boardHrefPattern = regexp.MustCompile(`/sb/([a-zA-Z0-9_-]+)$`)
	soundHrefPattern = regexp.MustCompile(`/sb/sound/(\d+)`)
	viewsPattern     = regexp.MustCompile(`(?i)([\d,]+)\s*views?`)
	soundsPattern    = regexp.MustCompile(`(?i)([\d,]+)\s*(?:sounds?|tracks?)`)
)

// Board links that are navigation, not content.
var reservedBoardNames = map[string]bool{
	"search":  true,
	"popular": true,
	"new":     true,
	"sound":   true,
}

func parseMarkup(url string, body []byte) (Markup, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Markup{}, &ParseError{URL: url, Reason: err.Error()}
	}
	return Markup{url: url, doc: doc}, nil
}

// parseSearchPage extracts board summaries from a search results page.
// Board identifiers come from /sb/<name> anchors; view and sound counts
// are scraped from the surrounding result row when the page carries
// them, and left zero otherwise.
func parseSearchPage(url string, body []byte) ([]BoardSummary, error) {
	markup, err := parseMarkup(url, body)
	if err != nil {
		return nil, err
	}
	doc := markup.doc

	// The HTML5 parser synthesizes html/head/body around any input, so
	// a response that was never markup (a JSON error body, binary, an
	// empty reply) parses to a body with no elements in it.
	if doc.Find("body").Children().Length() == 0 {
		return nil, &ParseError{URL: url, Reason: "response is not a listing page"}
	}

	var boards []BoardSummary
	seen := make(map[string]bool)

	doc.Find(`a[href*="/sb/"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		m := boardHrefPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		if seen[id] || reservedBoardNames[strings.ToLower(id)] {
			return
		}
		seen[id] = true

		board := BoardSummary{
			Identifier:  id,
			DisplayName: strings.TrimSpace(sel.Text()),
		}
		if board.DisplayName == "" {
			board.DisplayName = id
		}

		// Counts live somewhere in the result row around the anchor.
		rowText := sel.Closest("div, li, article").Text()
		board.ViewCount = extractCount(viewsPattern, rowText)
		board.SoundCount = extractCount(soundsPattern, rowText)

		boards = append(boards, board)
	})

	return boards, nil
}

// parseBoardSounds extracts sound entries from a board listing page.
// The primary shape is an item container carrying the track ID in a
// data-src attribute with the title in a nested span; download action
// anchors are the fallback when that container shape drifts.
func parseBoardSounds(baseURL string, markup Markup) []SoundEntry {
	if markup.doc == nil {
		return nil
	}

	var sounds []SoundEntry
	seen := make(map[string]bool)

	add := func(id, title string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		sounds = append(sounds, SoundEntry{
			RawTitle:      strings.TrimSpace(title),
			SourceURL:     baseURL + "/track/download/" + id,
			SequenceIndex: len(sounds),
		})
	}

	markup.doc.Find(`div.item.r[data-src]`).Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-src")
		title := sel.Find(".item-title span").First().Text()
		add(id, title)
	})

	if len(sounds) == 0 {
		markup.doc.Find(`a.btn-download-track[href]`).Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			m := soundHrefPattern.FindStringSubmatch(href)
			if m == nil {
				return
			}
			add(m[1], sel.AttrOr("title", ""))
		})
	}

	return sounds
}

func extractCount(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}
