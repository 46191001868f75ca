package intake

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseNotStarted      Phase = "not_started"
	PhaseInterviewing    Phase = "interviewing"
	PhaseAssessmentReady Phase = "assessment_ready"
	PhaseCompleted       Phase = "completed"
)

// ReadyMarker is the sentinel the model appends once it has gathered enough
// information. It is stripped before the reply is stored and never shown.
const ReadyMarker = "ASSESSMENT_READY"

const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

// Turn is one message of the interview. Immutable once appended.
type Turn struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Record holds the medical fields extracted from a finished interview.
// Nil pointers and empty slices mean "not stated"; the extractor never
// fabricates values that are not explicit in the transcript.
type Record struct {
	Age                *int     `json:"age"`
	Gender             *string  `json:"gender"`
	Symptoms           []string `json:"symptoms"`
	SymptomDuration    *string  `json:"symptom_duration"`
	PainLevel          *int     `json:"pain_level"`
	ChronicConditions  []string `json:"chronic_conditions"`
	Medications        []string `json:"medications"`
	Allergies          []string `json:"allergies"`
	HasFever           *bool    `json:"has_fever"`
	EmergencySymptoms  bool     `json:"emergency_symptoms"`
	AdditionalConcerns []string `json:"additional_concerns"`
}

// Session is the aggregate for one interview.
type Session struct {
	ID        uuid.UUID       `json:"id"`
	Turns     []Turn          `json:"turns"`
	Record    *Record         `json:"record,omitempty"`
	Diagnosis json.RawMessage `json:"diagnosis,omitempty"`
	Report    string          `json:"report,omitempty"`
	Phase     Phase           `json:"phase"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Session) append(speaker, text string) {
	now := time.Now()
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Text: text, Timestamp: now})
	s.UpdatedAt = now
}
