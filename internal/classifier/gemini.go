package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemPrompt = `You moderate Indonesian Telegram groups. Decide whether the message promotes online gambling ("judi online", slot, togel, casino, betting sites, deposit bonuses, "gacor", "maxwin" and similar).
Answer with a single character: 1 if it promotes gambling, 0 otherwise.`

// GeminiClassifier asks a Gemini model for the label.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClassifier(ctx context.Context, apiKey, modelName string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	model.GenerationConfig.ResponseMIMEType = "text/plain"
	model.SetTemperature(0)
	model.SetMaxOutputTokens(4)

	return &GeminiClassifier{client: client, model: model}, nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, text string) (violating bool, err error) {
	start := time.Now()
	defer func() { observe(ProviderGemini, start, err) }()

	resp, err := g.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return false, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return false, fmt.Errorf("empty response from gemini")
	}
	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return false, fmt.Errorf("unexpected gemini response part %T", resp.Candidates[0].Content.Parts[0])
	}
	return parseLabel(string(part))
}

// Close releases the underlying client.
func (g *GeminiClassifier) Close() error {
	return g.client.Close()
}

func parseLabel(s string) (bool, error) {
	s = strings.Trim(strings.TrimSpace(s), "`\"'.")
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected label %q", s)
	}
}
