package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gestionale-natale/crm-client/pkg/httpclient"
)

const maxSnippet = 512

// serverFailure extracts the backend supplied failure text, preferring key.
func serverFailure(body []byte, key failureKey) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, k := range []failureKey{key, key.other()} {
		if msg, ok := payload[k.String()].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return ""
}

func statusFailure(status int) string {
	return fmt.Sprintf("request failed with status code %d", status)
}

// bodySummary renders a short, log-friendly view of a failed response body.
// HTML error pages from proxies are reduced to their title or first heading.
func bodySummary(resp httpclient.Response) string {
	if resp == nil {
		return ""
	}
	body := resp.Body()
	if len(body) == 0 {
		return "<empty>"
	}

	if isHTML(resp) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			for _, sel := range []string{"title", "h1"} {
				if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
					return text
				}
			}
		}
	}

	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippet {
		return s[:maxSnippet] + "..."
	}
	return s
}

func isHTML(resp httpclient.Response) bool {
	if h := resp.Header(); h != nil {
		if strings.Contains(strings.ToLower(h.Get("Content-Type")), "text/html") {
			return true
		}
	}
	head := bytes.ToLower(bytes.TrimSpace(resp.Body()))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
