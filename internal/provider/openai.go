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

// OpenAI is the vision-capable adapter speaking the chat-completions
// protocol. Image requests are sent as inline data URIs.
type OpenAI struct {
	name     string
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenAI creates the OpenAI adapter from configuration.
func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	return &OpenAI{
		name:     "openai",
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   newHTTPClient(),
	}
}

func (p *OpenAI) Name() string { return p.name }

func (p *OpenAI) IsAvailable() bool { return p.apiKey != "" }

// contentPart is one element of a multimodal user message.
type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []contentPart
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAI) Analyze(ctx context.Context, req *models.AnalysisRequest, pctx *models.ProjectContext) (string, error) {
	msgs := []openAIMessage{{Role: "system", Content: systemPrompt(pctx)}}
	for _, turn := range req.History {
		msgs = append(msgs, openAIMessage{Role: turn.Role, Content: turn.Content})
	}

	if req.ImageRef != "" {
		uri, err := materializeImage(ctx, p.client, req.ImageRef)
		if err != nil {
			return "", fmt.Errorf("openai: %w", err)
		}
		imagePart := contentPart{Type: "image_url"}
		imagePart.ImageURL = &struct {
			URL string `json:"url"`
		}{URL: uri}
		msgs = append(msgs, openAIMessage{
			Role:    "user",
			Content: []contentPart{{Type: "text", Text: userMessage(req)}, imagePart},
		})
	} else {
		msgs = append(msgs, openAIMessage{Role: "user", Content: userMessage(req)})
	}

	body, _ := json.Marshal(openAIRequest{Model: p.model, Messages: msgs})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", fmt.Errorf("openai: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&oaiResp); err != nil {
		return "", &InvalidResponseError{Provider: p.name, Reason: "decode response: " + err.Error()}
	}
	if len(oaiResp.Choices) == 0 || oaiResp.Choices[0].Message.Content == "" {
		return "", &InvalidResponseError{Provider: p.name, Reason: "empty completion"}
	}
	return oaiResp.Choices[0].Message.Content, nil
}

// HealthCheck lists models as a cheap credential-validating probe.
func (p *OpenAI) HealthCheck(ctx context.Context) models.ProviderHealth {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/models", nil)
	if err != nil {
		return models.ProviderHealth{Status: models.StatusDown, Error: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

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

// classifyLatency maps a successful probe's round trip to a status.
func classifyLatency(latency time.Duration) models.ProviderHealth {
	status := models.StatusHealthy
	if latency > DegradedLatency {
		status = models.StatusDegraded
	}
	return models.ProviderHealth{Status: status, LatencyMs: latency.Milliseconds()}
}
