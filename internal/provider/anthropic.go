package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buildquote/buildquote/internal/config"
	"github.com/buildquote/buildquote/pkg/models"
)

// Anthropic is the conversational adapter speaking the messages protocol.
// It carries long histories well, which is why the orchestrator prefers it
// for multi-turn clarification threads.
type Anthropic struct {
	name     string
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewAnthropic creates the Anthropic adapter from configuration.
func NewAnthropic(cfg config.ProviderConfig) *Anthropic {
	return &Anthropic{
		name:     "anthropic",
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   newHTTPClient(),
	}
}

func (p *Anthropic) Name() string { return p.name }

func (p *Anthropic) IsAvailable() bool { return p.apiKey != "" }

// anthropicBlock is one content block of a message.
type anthropicBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Source *struct {
		Type      string `json:"type"`
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	} `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Anthropic) Analyze(ctx context.Context, req *models.AnalysisRequest, pctx *models.ProjectContext) (string, error) {
	var msgs []anthropicMessage
	for _, turn := range req.History {
		role := turn.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		msgs = append(msgs, anthropicMessage{
			Role:    role,
			Content: []anthropicBlock{{Type: "text", Text: turn.Content}},
		})
	}

	final := []anthropicBlock{{Type: "text", Text: userMessage(req)}}
	if req.ImageRef != "" {
		uri, err := materializeImage(ctx, p.client, req.ImageRef)
		if err != nil {
			return "", fmt.Errorf("anthropic: %w", err)
		}
		mediaType, data, err := splitDataURI(uri)
		if err != nil {
			return "", fmt.Errorf("anthropic: %w", err)
		}
		img := anthropicBlock{Type: "image"}
		img.Source = &struct {
			Type      string `json:"type"`
			MediaType string `json:"media_type"`
			Data      string `json:"data"`
		}{Type: "base64", MediaType: mediaType, Data: data}
		final = append([]anthropicBlock{img}, final...)
	}
	msgs = append(msgs, anthropicMessage{Role: "user", Content: final})

	body, _ := json.Marshal(anthropicRequest{
		Model:     p.model,
		System:    systemPrompt(pctx),
		Messages:  msgs,
		MaxTokens: 4096,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", fmt.Errorf("anthropic: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var anthResp anthropicResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&anthResp); err != nil {
		return "", &InvalidResponseError{Provider: p.name, Reason: "decode response: " + err.Error()}
	}

	var text string
	for _, c := range anthResp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	if text == "" {
		return "", &InvalidResponseError{Provider: p.name, Reason: "empty completion"}
	}
	return text, nil
}

// HealthCheck sends a minimal 1-token message to validate credentials.
func (p *Anthropic) HealthCheck(ctx context.Context) models.ProviderHealth {
	start := time.Now()

	body, _ := json.Marshal(anthropicRequest{
		Model:     p.model,
		Messages:  []anthropicMessage{{Role: "user", Content: []anthropicBlock{{Type: "text", Text: "Say OK"}}}},
		MaxTokens: 1,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return models.ProviderHealth{Status: models.StatusDown, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.ProviderHealth{Status: models.StatusDown, Error: err.Error(), LatencyMs: time.Since(start).Milliseconds()}
	}
	defer resp.Body.Close()

	latency := time.Since(start)
	if resp.StatusCode != http.StatusOK {
		return models.ProviderHealth{
			Status:    models.StatusDown,
			Error:     fmt.Sprintf("status %d", resp.StatusCode),
			LatencyMs: latency.Milliseconds(),
		}
	}
	return classifyLatency(latency)
}
