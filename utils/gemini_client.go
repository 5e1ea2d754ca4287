package utils

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/marinsell/onwater-studio/config"
	"google.golang.org/api/option"
)

// GenerateSceneImage renders the uploaded lot photo into the described
// on-water scene using Gemini. imageFormat is the subtype of the upload's
// mime type ("jpeg", "png", ...). Returns the generated image bytes.
func GenerateSceneImage(ctx context.Context, scenePrompt string, imageData []byte, imageFormat string) ([]byte, error) {
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-3-pro-image-preview")

	parts := []genai.Part{
		genai.Text(scenePrompt),
		genai.ImageData(imageFormat, imageData),
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %v", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}

	// The image model interleaves text commentary with the image blob;
	// the blob is what we are after.
	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return blob.Data, nil
		}
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return nil, fmt.Errorf("model returned text instead of an image: %s", truncate(string(text), 200))
		}
	}

	return nil, fmt.Errorf("unexpected response format (no image part)")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
