package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-intake-agent/internal/llm"
)

// fakeGateway returns scripted replies in order, or an error for a given call.
type fakeGateway struct {
	replies []string
	errs    []error
	calls   int
	// captured per call
	lastMessages []llm.Message
	maxTokens    []int
}

func (f *fakeGateway) Complete(_ context.Context, messages []llm.Message, maxTokens int) (string, error) {
	i := f.calls
	f.calls++
	f.lastMessages = messages
	f.maxTokens = append(f.maxTokens, maxTokens)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

type fakeLookup struct {
	calls  int
	result json.RawMessage
	ok     bool
}

func (f *fakeLookup) Lookup(_ context.Context, symptoms []string, _ *int, _ *string, _ []string) (json.RawMessage, bool) {
	f.calls++
	return f.result, f.ok
}

func newTestService(gw *fakeGateway, lu *fakeLookup) Service {
	return NewService(NewMemoryRepository(), gw, lu, true)
}

func TestStart_NoCredential(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{}, &fakeLookup{}, false)

	_, err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestStart_AppendsOpeningTurn(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw, &fakeLookup{})

	session, err := svc.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseInterviewing, session.Phase)
	require.Len(t, session.Turns, 1)
	assert.Equal(t, SpeakerAssistant, session.Turns[0].Speaker)
	assert.Equal(t, openingMessage, session.Turns[0].Text)
	assert.Equal(t, 0, gw.calls, "starting must not call the gateway")
}

func TestHandleMessage_TranscriptGrowsInOrder(t *testing.T) {
	gw := &fakeGateway{replies: []string{"When did it start?", "Any other symptoms?", "Noted."}}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)

	for _, msg := range []string{"I have a headache", "Since yesterday", "No"} {
		session, err = svc.HandleMessage(ctx, session.ID, msg)
		require.NoError(t, err)
	}

	// 1 opening + 3 user + 3 assistant
	require.Len(t, session.Turns, 7)
	assert.Equal(t, "I have a headache", session.Turns[1].Text)
	assert.Equal(t, "When did it start?", session.Turns[2].Text)
	assert.Equal(t, "No", session.Turns[5].Text)
	assert.Equal(t, "Noted.", session.Turns[6].Text)
	assert.Equal(t, PhaseInterviewing, session.Phase)
}

func TestHandleMessage_ContextWindowAndTokens(t *testing.T) {
	gw := &fakeGateway{replies: make([]string, 20)}
	for i := range gw.replies {
		gw.replies[i] = "ok"
	}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		session, err = svc.HandleMessage(ctx, session.ID, "more detail")
		require.NoError(t, err)
	}

	// system prompt + at most 10 history turns + the new user message
	assert.Len(t, gw.lastMessages, 12)
	assert.Equal(t, "system", gw.lastMessages[0].Role)
	assert.Equal(t, "more detail", gw.lastMessages[len(gw.lastMessages)-1].Content)
	assert.Equal(t, chatMaxTokens, gw.maxTokens[len(gw.maxTokens)-1])
}

func TestHandleMessage_GatewayFailureAbsorbed(t *testing.T) {
	gw := &fakeGateway{errs: []error{errors.New("boom")}, replies: []string{"", "Go on."}}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)

	session, err = svc.HandleMessage(ctx, session.ID, "hello?")
	require.NoError(t, err)

	require.Len(t, session.Turns, 3)
	assert.Equal(t, apologyMessage, session.Turns[2].Text)
	assert.Equal(t, PhaseInterviewing, session.Phase, "interview survives a failed call")

	// The user can retry afterwards.
	session, err = svc.HandleMessage(ctx, session.ID, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "Go on.", session.Turns[len(session.Turns)-1].Text)
}

func TestHandleMessage_ReadyMarkerStrippedOnce(t *testing.T) {
	gw := &fakeGateway{replies: []string{
		"Tell me more.",
		"Thanks, I have what I need. " + ReadyMarker,
	}}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)

	session, err = svc.HandleMessage(ctx, session.ID, "fever and cough")
	require.NoError(t, err)
	assert.Equal(t, PhaseInterviewing, session.Phase)

	session, err = svc.HandleMessage(ctx, session.ID, "that's everything")
	require.NoError(t, err)
	assert.Equal(t, PhaseAssessmentReady, session.Phase)

	for _, turn := range session.Turns {
		assert.NotContains(t, turn.Text, ReadyMarker)
	}
	assert.Equal(t, "Thanks, I have what I need.", session.Turns[len(session.Turns)-1].Text)
}

func TestHandleMessage_RejectedAfterInterview(t *testing.T) {
	gw := &fakeGateway{replies: []string{ReadyMarker}}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)
	session, err = svc.HandleMessage(ctx, session.ID, "done")
	require.NoError(t, err)
	require.Equal(t, PhaseAssessmentReady, session.Phase)

	_, err = svc.HandleMessage(ctx, session.ID, "one more thing")
	assert.ErrorIs(t, err, ErrInterviewOver)
}

func TestHandleMessage_UnknownSession(t *testing.T) {
	svc := newTestService(&fakeGateway{}, &fakeLookup{})

	_, err := svc.HandleMessage(context.Background(), uuid.New(), "hi")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGenerateAssessment_NotReady(t *testing.T) {
	gw := &fakeGateway{replies: []string{"Tell me more."}}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.GenerateAssessment(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestGenerateAssessment_FullPipeline(t *testing.T) {
	gw := &fakeGateway{replies: []string{
		"All set. " + ReadyMarker,
		`{"symptoms":["fever","cough"],"emergency_symptoms":false}`,
		"## Summary\nLikely a viral infection. See a doctor if it persists.",
	}}
	lu := &fakeLookup{result: json.RawMessage(`{"conditions":["flu"]}`), ok: true}
	svc := newTestService(gw, lu)
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)
	session, err = svc.HandleMessage(ctx, session.ID, "I have a fever and cough")
	require.NoError(t, err)

	session, err = svc.GenerateAssessment(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, PhaseCompleted, session.Phase)
	require.NotNil(t, session.Record)
	assert.Equal(t, []string{"fever", "cough"}, session.Record.Symptoms)
	assert.JSONEq(t, `{"conditions":["flu"]}`, string(session.Diagnosis))
	assert.Contains(t, session.Report, "viral infection")
	assert.Equal(t, 1, lu.calls)
	// interview reply + extraction + composition
	assert.Equal(t, 3, gw.calls)
	assert.Equal(t, []int{chatMaxTokens, extractMaxTokens, composeMaxTokens}, gw.maxTokens)
}

func TestGenerateAssessment_AbsentDiagnosisStillReports(t *testing.T) {
	gw := &fakeGateway{replies: []string{
		ReadyMarker,
		`{"symptoms":["fever","cough"],"emergency_symptoms":false}`,
		"Preliminary report text.",
	}}
	lu := &fakeLookup{ok: false}
	svc := newTestService(gw, lu)
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)
	session, err = svc.HandleMessage(ctx, session.ID, "fever and cough")
	require.NoError(t, err)

	session, err = svc.GenerateAssessment(ctx, session.ID)
	require.NoError(t, err)

	assert.Nil(t, session.Diagnosis)
	assert.NotEmpty(t, session.Report)
}

func TestGenerateAssessment_TotalAPIFailureStillReports(t *testing.T) {
	boom := errors.New("endpoint down")
	gw := &fakeGateway{
		replies: []string{ReadyMarker},
		errs:    []error{nil, boom, boom},
	}
	svc := newTestService(gw, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)
	session, err = svc.HandleMessage(ctx, session.ID, "done")
	require.NoError(t, err)

	session, err = svc.GenerateAssessment(ctx, session.ID)
	require.NoError(t, err)

	require.NotNil(t, session.Record)
	assert.Empty(t, session.Record.Symptoms)
	assert.Equal(t, composerFallback, session.Report)
}

func TestReset_RemovesSession(t *testing.T) {
	svc := newTestService(&fakeGateway{}, &fakeLookup{})
	ctx := context.Background()

	session, err := svc.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, session.ID))

	_, err = svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.Reset(ctx, session.ID), ErrSessionNotFound)
}
