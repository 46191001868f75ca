package intake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"medical-intake-agent/internal/llm"
)

const composeMaxTokens = 1200

// composer builds the final advisory report from the extracted record and the
// optional diagnosis payload. It always returns displayable text.
type composer struct {
	ai Completer
}

func (c *composer) Compose(ctx context.Context, rec *Record, diag json.RawMessage) string {
	recJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return composerFallback
	}

	diagText := "Not available"
	if len(diag) > 0 {
		if pretty, err := json.MarshalIndent(diag, "", "  "); err == nil {
			diagText = string(pretty)
		}
	}

	messages := []llm.Message{
		{Role: "system", Content: assessmentSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(assessmentPromptTemplate, recJSON, diagText)},
	}

	report, err := c.ai.Complete(ctx, messages, composeMaxTokens)
	if err != nil || report == "" {
		log.Warn().Err(err).Msg("assessment generation failed, using fallback text")
		return composerFallback
	}
	return report
}
