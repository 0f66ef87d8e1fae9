package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"yt-notes/internal/models"
	"yt-notes/shared/config"
)

const summaryFallbackLimit = 1000

// GenerationError means the backend was unreachable or the response
// failed field validation even after fallback repair. Missing lists
// every invalid field so the caller can report a complete diagnosis.
type GenerationError struct {
	Missing []string
	Err     error
}

func (e *GenerationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("generated note is missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("note generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator turns transcript text into a structured study note via the
// Gemini API.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(cfg *config.Config) (*Generator, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  cfg.AI.Model,
	}, nil
}

// Generate builds the generation request, sends it, and coerces the
// response into a valid GeneratedNote. An unparsable response degrades
// to a placeholder note before validation; a note that still fails
// validation is never returned as success.
func (g *Generator) Generate(ctx context.Context, transcript, videoURL, title, channel string) (*models.GeneratedNote, error) {
	prompt := buildNotePrompt(transcript, videoURL, title, channel)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("generation request failed: %w", err)}
	}

	responseText := strings.TrimSpace(result.Text())
	if responseText == "" {
		return nil, &GenerationError{Err: fmt.Errorf("empty response from model %s", g.model)}
	}

	note := parseNoteResponse(responseText, title, channel)

	if missing := note.MissingFields(); len(missing) > 0 {
		return nil, &GenerationError{Missing: missing}
	}
	return note, nil
}

// parseNoteResponse parses the model output as JSON after stripping any
// enclosing code fences. When parsing fails, it falls back to a
// degraded but structurally valid note built from the raw text; that
// path is logged, never silent.
func parseNoteResponse(responseText, title, channel string) *models.GeneratedNote {
	cleaned := stripCodeFences(responseText)

	var note models.GeneratedNote
	if err := json.Unmarshal([]byte(cleaned), &note); err == nil {
		if note.VideoTitle == "" {
			note.VideoTitle = title
		}
		if note.ChannelName == "" {
			note.ChannelName = channel
		}
		return &note
	}

	log.Printf("Failed to parse model response as JSON, building degraded fallback note (response prefix: %.80s)", cleaned)

	summary := cleaned
	if len(summary) > summaryFallbackLimit {
		cut := summaryFallbackLimit
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}
	return &models.GeneratedNote{
		VideoTitle:  title,
		ChannelName: channel,
		Summary:     summary,
		KeyPoints:   []string{"Key point extracted from video"},
		Timestamps: []models.NoteTimestamp{
			{Time: "00:00", Description: "Video content extracted (parsing failed, using fallback)"},
		},
	}
}

// stripCodeFences removes leading/trailing markdown fence markers,
// optionally tagged ("```json"), that models like to wrap JSON in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildNotePrompt(transcript, videoURL, title, channel string) string {
	return fmt.Sprintf(`You are an expert at analyzing YouTube video subtitle text and creating comprehensive, well-structured notes.

I have provided you with the actual video subtitle text below. Please analyze it and create detailed notes in JSON format.

VIDEO INFORMATION:
- Video Title: %s
- Channel Name: %s
- Video URL: %s

VIDEO SUBTITLE TEXT:
%s

Please provide your response as a valid JSON object with the following structure:
{
    "video_title": "%s",
    "channel_name": "%s",
    "summary": "A comprehensive summary of the video content in 2-3 paragraphs. This should cover the main topics, key concepts, and overall message of the video.",
    "key_points": [
        "Key point 1 - A clear and concise main point from the video",
        "Key point 2 - Another important point",
        "Key point 3 - Continue with 5-10 key points that capture the main topics and important information"
    ],
    "timestamps": [
        {
            "time": "00:30",
            "description": "Brief description of what happens at this timestamp - important moments, topic changes, or key information"
        },
        {
            "time": "02:15",
            "description": "Another important timestamp with description"
        }
    ]
}

IMPORTANT INSTRUCTIONS:
1. Use the EXACT video title and channel name provided above - do NOT change them
2. Create a comprehensive summary (2-3 paragraphs) that captures the essence of the video based on the subtitle text
3. Identify 5-10 key points that represent the main topics and important information
4. Identify 3-7 important timestamps with brief descriptions of what happens at each moment
5. Timestamps should be in MM:SS format (e.g., "05:30", "12:45")
6. Only include timestamps for truly important moments (topic changes, key concepts, important information)
7. Ensure the response is valid JSON only - no markdown formatting, no code blocks, just pure JSON

Return ONLY the JSON object, nothing else.`,
		title, channel, videoURL, transcript, title, channel)
}
