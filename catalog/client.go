package catalog

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"

	snaghttp "github.com/eworthing/soundboard-snag/http"
)

// DefaultBaseURL is the production catalog endpoint.
const DefaultBaseURL = "https://www.soundboard.com"

// httpDoer is the subset of the HTTP client the catalog client needs.
type httpDoer interface {
	Get(ctx context.Context, url string) (*snaghttp.Response, error)
}

// Client issues read requests against the remote catalog and parses
// board and sound listings out of the responses. Every call is a single
// outbound request; retry policy lives with the caller.
type Client struct {
	baseURL string
	http    httpDoer
}

// NewClient creates a catalog client for the given base URL. If baseURL
// is empty, DefaultBaseURL is used. If httpClient is nil, a client with
// default settings is created.
func NewClient(baseURL string, httpClient *snaghttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = snaghttp.New(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the catalog endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchPage fetches one page of search results. The empty cursor
// requests the first page. The returned cursor is empty when there are
// no further pages.
func (c *Client) SearchPage(ctx context.Context, query string, cursor Cursor) ([]BoardSummary, Cursor, error) {
	if strings.TrimSpace(query) == "" {
		return nil, "", ErrEmptyQuery
	}

	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(string(cursor))
		if err != nil || n < 1 {
			return nil, "", &ParseError{URL: c.baseURL, Reason: fmt.Sprintf("invalid cursor %q", cursor)}
		}
		page = n
	}

	searchURL := c.baseURL + "/search/" + url.PathEscape(strings.TrimSpace(query))
	if page > 1 {
		searchURL += "?page=" + strconv.Itoa(page)
	}

	resp, err := c.http.Get(ctx, searchURL)
	if err != nil {
		return nil, "", &NetworkError{URL: searchURL, Err: err}
	}

	boards, err := parseSearchPage(searchURL, resp.Body)
	if err != nil {
		return nil, "", err
	}

	// An empty page means end of results; otherwise offer the next page.
	var next Cursor
	if len(boards) > 0 {
		next = Cursor(strconv.Itoa(page + 1))
	}
	return boards, next, nil
}

// FetchBoardSounds fetches a board's listing page and returns its sound
// entries along with the page markup for availability classification.
func (c *Client) FetchBoardSounds(ctx context.Context, boardID string) ([]SoundEntry, Markup, error) {
	boardURL := c.baseURL + "/sb/" + url.PathEscape(boardID)

	resp, err := c.http.Get(ctx, boardURL)
	if err != nil {
		return nil, Markup{}, &NetworkError{URL: boardURL, Err: err}
	}

	markup, err := parseMarkup(boardURL, resp.Body)
	if err != nil {
		return nil, Markup{}, err
	}

	sounds := parseBoardSounds(c.baseURL, markup)
	return sounds, markup, nil
}

// SoundPayload is the fetched binary content of a single sound.
type SoundPayload struct {
	// Data is the raw payload.
	Data []byte
	// ContentType is the media type from the response, if any.
	ContentType string
	// SuggestedName is the server-provided filename from the
	// Content-Disposition header, if any.
	SuggestedName string
}

// FetchSound fetches the audio payload for a sound entry.
func (c *Client) FetchSound(ctx context.Context, entry SoundEntry) (SoundPayload, error) {
	resp, err := c.http.Get(ctx, entry.SourceURL)
	if err != nil {
		return SoundPayload{}, &NetworkError{URL: entry.SourceURL, Err: err}
	}

	payload := SoundPayload{
		Data:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if disp := resp.Header.Get("Content-Disposition"); disp != "" {
		if _, params, err := mime.ParseMediaType(disp); err == nil {
			payload.SuggestedName = params["filename"]
		}
	}

	return payload, nil
}
