package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kritika-bot/kritika/pkg/config"
)

const defaultAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// Safety categories blocked at medium and above for every request.
var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Client talks to the generativelanguage generateContent endpoint. The
// model id, system instruction, sampling configuration and safety policy
// are fixed once at construction and shared by every session.
type Client struct {
	apiKey     string
	apiBase    string
	model      string
	system     string
	genConfig  generationConfig
	safety     []safetySetting
	httpClient *http.Client
}

func NewClient(cfg config.GeminiConfig, systemInstruction string) *Client {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	timeout := time.Duration(cfg.HTTPTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		apiBase: apiBase,
		model:   cfg.Model,
		system:  systemInstruction,
		genConfig: generationConfig{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		safety:     defaultSafetySettings,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Model() string {
	return c.model
}

// StartSession returns a new empty-history chat session.
func (c *Client) StartSession() *Session {
	return &Session{client: c}
}

// Session accumulates the multi-turn exchange history for one chat.
// History grows only on successful calls, mirroring the upstream chat
// semantics.
type Session struct {
	client  *Client
	mu      sync.Mutex
	history []content
}

// HistoryLen reports the number of accumulated turns.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Send submits a prompt against the accumulated history and returns the
// model reply. A non-2xx status yields an *APIError; a response with no
// candidates (e.g. a safety block) yields a Reply with empty text and
// the block reason set.
func (s *Session) Send(ctx context.Context, prompt string) (*Reply, error) {
	s.mu.Lock()
	contents := make([]content, len(s.history), len(s.history)+1)
	copy(contents, s.history)
	s.mu.Unlock()

	userTurn := content{Role: "user", Parts: []Part{{Text: prompt}}}
	contents = append(contents, userTurn)

	reqBody := generateRequest{
		Contents:         contents,
		GenerationConfig: s.client.genConfig,
		SafetySettings:   s.client.safety,
	}
	if s.client.system != "" {
		reqBody.SystemInstruction = &content{Parts: []Part{{Text: s.client.system}}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.client.apiBase, s.client.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.client.apiKey)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("malformed gemini response: %w", err)
	}

	reply := gr.reply()

	// Commit the exchange only when the model actually answered. A
	// blocked or empty response must leave history untouched, or the
	// offending prompt would be replayed on every later call.
	if len(reply.Parts) > 0 {
		s.mu.Lock()
		s.history = append(s.history, userTurn, content{Role: "model", Parts: reply.Parts})
		s.mu.Unlock()
	}

	return reply, nil
}

// APIError carries the HTTP status and upstream message for a failed call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini API error: status %d: %s", e.StatusCode, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &wrapped); err == nil {
		msg = wrapped.Error.Message
	}
	return &APIError{StatusCode: status, Message: msg}
}
