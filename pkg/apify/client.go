package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.apify.com"

// Client runs Apify actors synchronously and reads their dataset output.
type Client struct {
	baseURL    string
	apiKey     string
	actorID    string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, actorID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		actorID: actorID,
		// Actor runs block until the scrape finishes, so the timeout is generous.
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// ScrapeProfile runs the LinkedIn scraper actor against a single profile URL
// and returns the first dataset item.
func (c *Client) ScrapeProfile(ctx context.Context, profileURL string) (map[string]interface{}, error) {
	input := map[string]interface{}{
		"profileUrls": []string{profileURL},
	}
	items, err := c.runSync(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("scraper returned no results for %s", profileURL)
	}
	return items[0], nil
}

// runSync calls the run-sync-get-dataset-items endpoint, which starts the
// actor, waits for it to finish, and returns its dataset as a JSON array.
func (c *Client) runSync(ctx context.Context, input interface{}) ([]map[string]interface{}, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, c.actorID, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apify request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// run-sync-get-dataset-items returns 201 on success.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("apify API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset items: %w", err)
	}

	return items, nil
}

// FlattenItem renders a dataset item as "key: value" lines so it can be fed
// to a language model. Nested values are JSON-encoded; keys are sorted for
// stable output.
func FlattenItem(item map[string]interface{}) string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := item[k]
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", k, val)
		case float64, bool:
			fmt.Fprintf(&b, "%s: %v\n", k, val)
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", k, encoded)
		}
	}
	return b.String()
}
