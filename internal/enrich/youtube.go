package enrich

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultTranscriptBaseURL is YouTube's caption track endpoint.
const DefaultTranscriptBaseURL = "https://www.youtube.com/api/timedtext"

// timedText is the caption track document served by the timedtext
// endpoint: entity-encoded lines ordered by start time.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Start float64 `xml:"start,attr"`
		Text  string  `xml:",chardata"`
	} `xml:"text"`
}

// videoID extracts the video id from a watch URL (`v=` query parameter)
// or a youtu.be short link.
func videoID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid video URL: %w", err)
	}

	var id string
	if strings.EqualFold(u.Hostname(), "youtu.be") {
		id = strings.Trim(u.Path, "/")
	} else {
		id = u.Query().Get("v")
	}
	if id == "" {
		return "", errors.New("invalid video URL: no video id")
	}
	return id, nil
}

// videoTranscript fetches the caption track for a video link and
// concatenates the caption text in temporal order.
func (p *Pipeline) videoTranscript(ctx context.Context, link string) (string, error) {
	id, err := videoID(link)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s?lang=%s&v=%s", p.transcriptBaseURL, url.QueryEscape(p.transcriptLang), url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building transcript request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching transcript: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching transcript: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}

	// The endpoint answers 200 with an empty body when no caption track
	// exists for the requested language.
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", errors.New("no captions available")
	}

	var track timedText
	if err := xml.Unmarshal(body, &track); err != nil {
		return "", fmt.Errorf("parsing transcript: %w", err)
	}
	if len(track.Lines) == 0 {
		return "", errors.New("no captions available")
	}

	parts := make([]string, 0, len(track.Lines))
	for _, line := range track.Lines {
		if text := strings.TrimSpace(html.UnescapeString(line.Text)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
