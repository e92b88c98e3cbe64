package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI REST API for chat completions and embeddings.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	embeddingModel string
	httpClient     *http.Client
}

// Profile is the structured suggestion the model produces from scraped
// LinkedIn data, used to enrich a contact.
type Profile struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	Notes    string `json:"notes"`
}

func NewClient(baseURL, apiKey, model, embeddingModel string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	return &Client{
		baseURL:        baseURL,
		apiKey:         apiKey,
		model:          model,
		embeddingModel: embeddingModel,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletion sends a chat completion request and returns the first
// choice's content.
func (c *Client) chatCompletion(ctx context.Context, messages []chatMessage, temperature float64) (string, error) {
	payload := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"temperature": temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// Summarize returns a 1-2 sentence summary of a message. The model is told
// who the mailbox owner is so the summary refers to them as "you".
func (c *Client) Summarize(ctx context.Context, owner, message string) (string, error) {
	system := fmt.Sprintf(`I am %s. Refer to all instances of %s as "you". Summarize the given emails in 2 short sentences or fewer.

Example summary 1: You sent a message to person B asking them for an internship. You were inspired by their talk at the YC event and gave them your contact information.
Example summary 2: John Doe responded to you saying that they were impressed with your resume and would like to set up a meeting with you.`, owner, owner)

	return c.chatCompletion(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	}, 0.05)
}

// SuggestProfile distills scraped LinkedIn data into company, position and a
// short biographical note.
func (c *Client) SuggestProfile(ctx context.Context, name, scraped string) (*Profile, error) {
	system := `You extract professional facts from scraped LinkedIn profile data. Respond with a single JSON object with exactly these string fields: "company" (current employer), "position" (current job title), "notes" (2-3 sentence professional background). Use an empty string for anything the data does not show. ONLY return the JSON object, no other text.`

	user := fmt.Sprintf("Contact name: %s\n\nScraped profile data:\n%s", name, scraped)

	content, err := c.chatCompletion(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, 0.1)
	if err != nil {
		return nil, err
	}

	// Strip markdown fences and any text around the JSON object.
	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON object in model response: %s", content)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd+1]), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %v", err)
	}

	return &profile, nil
}

// EmbedTexts returns one embedding vector per input text, in input order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]interface{}{
		"model": c.embeddingModel,
		"input": texts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embeddings", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(result.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}
