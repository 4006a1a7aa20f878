package pricing

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator asks a Gemini model for JSON constrained to the suggestion schema.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey string, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

func responseSchema() *genai.Schema {
	text := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggestedPrice": {
				Type:        genai.TypeNumber,
				Description: "The AI-suggested optimal selling price for the product.",
			},
			"profitTrendAnalysis": text("An analysis of the profit trends for the product."),
			"lowSellingWarning":   text("A warning message if the product is selling poorly."),
			"restockSuggestion":   text("A suggestion for restocking the product, if needed."),
			"dailySmartTip":       text("A daily smart tip related to pricing or inventory management."),
		},
		Required: []string{
			"suggestedPrice",
			"profitTrendAnalysis",
			"lowSellingWarning",
			"restockSuggestion",
			"dailySmartTip",
		},
		PropertyOrdering: []string{
			"suggestedPrice",
			"profitTrendAnalysis",
			"lowSellingWarning",
			"restockSuggestion",
			"dailySmartTip",
		},
	}
}
