package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_EmbedsRecordAndDiagnosis(t *testing.T) {
	gw := &fakeGateway{replies: []string{"## Assessment\nLow urgency."}}
	c := &composer{ai: gw}

	age := 30
	rec := &Record{Age: &age, Symptoms: []string{"fever"}}
	report := c.Compose(context.Background(), rec, json.RawMessage(`{"conditions":["flu"]}`))

	assert.Equal(t, "## Assessment\nLow urgency.", report)
	require.Len(t, gw.lastMessages, 2)
	prompt := gw.lastMessages[1].Content
	assert.Contains(t, prompt, `"fever"`)
	assert.Contains(t, prompt, `"flu"`)
	assert.NotContains(t, prompt, "Not available")
	assert.Equal(t, []int{composeMaxTokens}, gw.maxTokens)
}

func TestCompose_AbsentDiagnosisLabeled(t *testing.T) {
	gw := &fakeGateway{replies: []string{"report"}}
	c := &composer{ai: gw}

	c.Compose(context.Background(), &Record{}, nil)

	assert.Contains(t, gw.lastMessages[1].Content, "Not available")
}

func TestCompose_GatewayFailureFallsBack(t *testing.T) {
	gw := &fakeGateway{errs: []error{errors.New("down")}}
	c := &composer{ai: gw}

	report := c.Compose(context.Background(), &Record{}, nil)
	assert.Equal(t, composerFallback, report)
}

func TestCompose_EmptyReplyFallsBack(t *testing.T) {
	gw := &fakeGateway{replies: []string{""}}
	c := &composer{ai: gw}

	report := c.Compose(context.Background(), &Record{}, nil)
	assert.Equal(t, composerFallback, report)
}
