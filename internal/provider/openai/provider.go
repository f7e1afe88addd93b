// Package openai implements the domain.Provider interface on top of the
// low-level OpenAI API client.
package openai

import (
	"context"
	"net/http"

	openaiapi "github.com/VariableVic/medusa-ai-assistant/internal/api/openai"
	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider implements domain.Provider using the custom OpenAI client.
type Provider struct {
	client     *openaiapi.Client
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a new OpenAI provider.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		apiKey: apiKey,
	}

	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []openaiapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, openaiapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, openaiapi.WithHTTPClient(p.httpClient))
	}

	p.client = openaiapi.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return "openai"
}

// Stream sends a streaming chat completion request and maps the chunk stream
// onto canonical completion events.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.CompletionEvent, error) {
	apiReq := toAPIRequest(req)

	stream, err := p.client.StreamChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.CompletionEvent)
	go func() {
		defer close(out)
		for result := range stream {
			if result.Err != nil {
				out <- domain.CompletionEvent{Error: result.Err}
				return
			}

			chunk := result.Chunk
			if len(chunk.Choices) > 0 {
				choice := chunk.Choices[0]
				event := domain.CompletionEvent{
					Role:         choice.Delta.Role,
					ContentDelta: choice.Delta.Content,
				}

				if fc := choice.Delta.FunctionCall; fc != nil {
					event.FunctionDelta = &domain.FunctionCallDelta{
						Name:      fc.Name,
						Arguments: fc.Arguments,
					}
				}

				if choice.FinishReason != nil {
					event.FinishReason = *choice.FinishReason
				}

				out <- event
			}

			// Handle usage in final chunk
			if chunk.Usage != nil {
				out <- domain.CompletionEvent{
					Usage: &domain.Usage{
						PromptTokens:     chunk.Usage.PromptTokens,
						CompletionTokens: chunk.Usage.CompletionTokens,
						TotalTokens:      chunk.Usage.TotalTokens,
					},
				}
			}
		}
	}()

	return out, nil
}

// toAPIRequest converts a canonical request to an OpenAI API request.
func toAPIRequest(req *domain.CompletionRequest) *openaiapi.ChatCompletionRequest {
	messages := make([]openaiapi.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msg := openaiapi.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		}
		if m.FunctionCall != nil {
			msg.FunctionCall = &openaiapi.FunctionCall{
				Name:      m.FunctionCall.Name,
				Arguments: m.FunctionCall.Arguments,
			}
		}
		messages[i] = msg
	}

	apiReq := &openaiapi.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   req.Stream,
	}

	if req.Temperature > 0 {
		apiReq.Temperature = &req.Temperature
	}

	if len(req.Functions) > 0 {
		apiReq.Functions = make([]openaiapi.FunctionDefinition, len(req.Functions))
		for i, f := range req.Functions {
			apiReq.Functions[i] = openaiapi.FunctionDefinition{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			}
		}
	}

	if req.FunctionCall != "" {
		apiReq.FunctionCall = req.FunctionCall
	}

	return apiReq
}
