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

// Ollama is the local adapter speaking the OpenAI-compatible endpoint of a
// self-hosted model. It needs no API key, which makes it the last resort of
// the fallback chain in zero-config deployments.
type Ollama struct {
	name     string
	endpoint string
	model    string
	client   *http.Client
}

// NewOllama creates the Ollama adapter from configuration.
func NewOllama(cfg config.ProviderConfig) *Ollama {
	return &Ollama{
		name:     "ollama",
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		client:   newHTTPClient(),
	}
}

func (p *Ollama) Name() string { return p.name }

func (p *Ollama) IsAvailable() bool { return p.endpoint != "" }

func (p *Ollama) Analyze(ctx context.Context, req *models.AnalysisRequest, pctx *models.ProjectContext) (string, error) {
	msgs := []openAIMessage{{Role: "system", Content: systemPrompt(pctx)}}
	for _, turn := range req.History {
		msgs = append(msgs, openAIMessage{Role: turn.Role, Content: turn.Content})
	}
	// Local models here are text-only; an image-only request still gets a
	// generic photo prompt so the schema comes back complete.
	msgs = append(msgs, openAIMessage{Role: "user", Content: userMessage(req)})

	body, _ := json.Marshal(openAIRequest{Model: p.model, Messages: msgs})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", fmt.Errorf("ollama: status %d: %s", httpResp.StatusCode, string(respBody))
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

// HealthCheck verifies the local server is running by listing its models.
func (p *Ollama) HealthCheck(ctx context.Context) models.ProviderHealth {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/api/tags", nil)
	if err != nil {
		return models.ProviderHealth{Status: models.StatusDown, Error: err.Error()}
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.ProviderHealth{Status: models.StatusDown, Error: "ollama unreachable: " + err.Error(), LatencyMs: time.Since(start).Milliseconds()}
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
