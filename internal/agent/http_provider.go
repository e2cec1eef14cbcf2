package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/funnelstack/funnel-probe/internal/utils"
)

// HTTPProvider talks to an external browser-automation service exposing
// natural-language act/extract primitives over JSON.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider constructs a provider targeting the configured automation service.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewSession starts a browsing session on the provider.
func (p *HTTPProvider) NewSession(ctx context.Context) (Session, error) {
	if p == nil || p.baseURL == "" {
		return nil, fmt.Errorf("automation provider base URL not configured")
	}

	var response struct {
		SessionID string `json:"session_id"`
		ReplayURL string `json:"replay_url"`
	}
	if err := p.doJSON(ctx, http.MethodPost, "/v1/sessions", map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if response.SessionID == "" {
		return nil, fmt.Errorf("create session: provider returned no session id")
	}

	return &httpSession{provider: p, id: response.SessionID, replayURL: response.ReplayURL}, nil
}

type httpSession struct {
	provider  *HTTPProvider
	id        string
	replayURL string
}

func (s *httpSession) Act(ctx context.Context, instruction string) error {
	payload := map[string]interface{}{"instruction": instruction}
	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/v1/sessions/%s/act", s.id)
	if err := s.provider.doJSON(ctx, http.MethodPost, path, payload, &response); err != nil {
		return fmt.Errorf("act request failed: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("act could not be performed: %s", firstNonEmpty(response.Message, "no detail"))
	}
	return nil
}

func (s *httpSession) Extract(ctx context.Context, prompt string) (Observation, error) {
	payload := map[string]interface{}{"prompt": prompt}
	var response struct {
		Observation json.RawMessage `json:"observation"`
	}
	path := fmt.Sprintf("/v1/sessions/%s/extract", s.id)
	if err := s.provider.doJSON(ctx, http.MethodPost, path, payload, &response); err != nil {
		return Observation{}, fmt.Errorf("extract request failed: %w", err)
	}
	return NewObservation(response.Observation), nil
}

func (s *httpSession) CurrentURL(ctx context.Context) (string, error) {
	var response struct {
		URL string `json:"url"`
	}
	path := fmt.Sprintf("/v1/sessions/%s/url", s.id)
	if err := s.provider.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return "", fmt.Errorf("current url request failed: %w", err)
	}
	return response.URL, nil
}

func (s *httpSession) ReplayURL() string {
	return s.replayURL
}

func (s *httpSession) Close(ctx context.Context) error {
	path := fmt.Sprintf("/v1/sessions/%s", s.id)
	if err := s.provider.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (p *HTTPProvider) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(data))
		return utils.NewAppError("agent.request",
			fmt.Sprintf("provider returned %d", resp.StatusCode), errors.New(detail))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
