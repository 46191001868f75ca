package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"medical-intake-agent/internal/llm"
)

const extractMaxTokens = 800

// extractor turns a transcript into a Record. Extraction is best-effort: any
// gateway or parse failure degrades to the zero record, never an error.
type extractor struct {
	ai Completer
}

func (e *extractor) Extract(ctx context.Context, transcript string) *Record {
	messages := []llm.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(extractionPromptTemplate, transcript)},
	}

	reply, err := e.ai.Complete(ctx, messages, extractMaxTokens)
	if err != nil {
		log.Warn().Err(err).Msg("extraction call failed, returning empty record")
		return &Record{}
	}

	raw, ok := firstJSONObject(reply)
	if !ok {
		log.Warn().Msg("no JSON object in extraction reply")
		return &Record{}
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Warn().Err(err).Msg("extraction reply is not valid JSON")
		return &Record{}
	}
	return &rec
}

// firstJSONObject locates a candidate JSON object in free-form model output:
// code fences are stripped, then everything from the first '{' to the last
// '}' is taken greedily.
func firstJSONObject(text string) (string, bool) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

// transcriptText renders the full interview as labeled lines for the
// extraction prompt.
func transcriptText(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		label := "User"
		if t.Speaker == SpeakerAssistant {
			label = "Assistant"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}
