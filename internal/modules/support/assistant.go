// README: Gemini-backed support assistant.
package support

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.0-flash"

const systemPrompt = "You are the support assistant for FlashTaxi, a ride-hailing service in India. " +
	"Answer rider questions about booking, fares, cancellations, payments and safety in two or three sentences. " +
	"Fares are in rupees. If you cannot help, tell the rider a human agent will follow up."

type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

type GeminiAssistant struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiAssistant(ctx context.Context, apiKey string) (*GeminiAssistant, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := client.GenerativeModel(geminiModel)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	return &GeminiAssistant{client: client, model: model}, nil
}

func (a *GeminiAssistant) Ask(ctx context.Context, message string) (string, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: API returned empty candidates")
	}

	var textParts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok || strings.TrimSpace(string(txt)) == "" {
			continue
		}
		textParts = append(textParts, string(txt))
	}
	if len(textParts) == 0 {
		return "", fmt.Errorf("gemini: API returned empty text parts")
	}
	return strings.Join(textParts, "\n"), nil
}

func (a *GeminiAssistant) Close() error {
	return a.client.Close()
}
