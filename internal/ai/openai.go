package ai

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

const (
	openaiBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel  = "gpt-4o-mini"
)

// OpenAIClient implements the Client interface against the OpenAI chat
// completions API.
type OpenAIClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI classification client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey: apiKey,
		model:  defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithModel allows changing the model (e.g., "gpt-4o")
func (o *OpenAIClient) WithModel(model string) *OpenAIClient {
	o.model = model
	return o
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []openaiMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type classification struct {
	ItemCategory string `json:"item_category"`
}

func (o *OpenAIClient) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := openaiRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    0, // deterministic category output
		MaxTokens:      100,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiBaseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var openaiResp openaiResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if openaiResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s (%s)", openaiResp.Error.Message, openaiResp.Error.Type)
	}

	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return openaiResp.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) classify(ctx context.Context, prompt string) (string, error) {
	response, err := o.callAPI(ctx, prompt)
	if err != nil {
		return "", err
	}

	var result classification
	if err := json.Unmarshal([]byte(cleanJSON(response)), &result); err != nil {
		return "", fmt.Errorf("failed to parse classification: %w (response: %s)", err, response)
	}
	if result.ItemCategory == "" {
		return CategoryOther, nil
	}
	return result.ItemCategory, nil
}

// ClassifyDrug assigns a therapeutic category to an approved drug.
func (o *OpenAIClient) ClassifyDrug(ctx context.Context, data DrugData) (string, error) {
	prompt := fmt.Sprintf(`For the following drug details, classify the drug into the appropriate category.

Drug Name: %s
Mode of Administration: %s
Description: %s
Indicated Treatment: %s

Categories: %s

Classify the drug based on its name, mode of administration, description, and indicated treatment into one of the listed categories. If the drug does not clearly fit into any of these categories, output "Other".

Return JSON only with this exact structure:
{"item_category": "category name"}`,
		data.Name, data.Administration, truncateText(data.Description, 800), data.Treatment,
		strings.Join(DrugCategories, ", "))

	return o.classify(ctx, prompt)
}

// ClassifyDisease assigns an indication category to the treated condition.
func (o *OpenAIClient) ClassifyDisease(ctx context.Context, data DrugData) (string, error) {
	prompt := fmt.Sprintf(`For the following details, classify the disease into the appropriate category.

Drug Name: %s
Indicated Treatment: %s

Categories: %s

Classify the disease based on the drug name used and indicated treatment into one of the listed categories. If the disease does not clearly fit into any of these categories, output "Other".

Return JSON only with this exact structure:
{"item_category": "category name"}`,
		data.Name, data.Treatment, strings.Join(DiseaseCategories, ", "))

	return o.classify(ctx, prompt)
}

// truncateText limits text to maxLen characters
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

// cleanJSON removes markdown code blocks if present
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
