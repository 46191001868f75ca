package export

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"medical-intake-agent/internal/intake"
)

const timestampLayout = "20060102_150405"

type consultationInfo struct {
	Timestamp        string `json:"timestamp"`
	SessionID        string `json:"session_id"`
	ConsultationType string `json:"consultation_type"`
	Status           string `json:"status"`
}

type conversationSummary struct {
	TotalMessages   int     `json:"total_messages"`
	UserMessages    int     `json:"user_messages"`
	BotMessages     int     `json:"bot_messages"`
	DurationMinutes float64 `json:"duration_minutes"`
}

type jsonExport struct {
	ConsultationInfo     consultationInfo    `json:"consultation_info"`
	ExtractedMedicalData *intake.Record      `json:"extracted_medical_data"`
	FullConversation     []intake.Turn       `json:"full_conversation"`
	ConversationSummary  conversationSummary `json:"conversation_summary"`
}

// JSON serializes the session into the consultation download schema.
func JSON(s *intake.Session) ([]byte, error) {
	users, bots := 0, 0
	for _, t := range s.Turns {
		if t.Speaker == intake.SpeakerUser {
			users++
		} else {
			bots++
		}
	}

	doc := jsonExport{
		ConsultationInfo: consultationInfo{
			Timestamp:        time.Now().Format(timestampLayout),
			SessionID:        s.ID.String(),
			ConsultationType: "AI Medical Assistant",
			Status:           status(s),
		},
		ExtractedMedicalData: s.Record,
		FullConversation:     s.Turns,
		ConversationSummary: conversationSummary{
			TotalMessages:   len(s.Turns),
			UserMessages:    users,
			BotMessages:     bots,
			DurationMinutes: DurationMinutes(s.Turns),
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// CSV renders the session as a quoted key/value summary followed by the
// conversation log, ready for spreadsheet import.
func CSV(s *intake.Session) ([]byte, error) {
	var b strings.Builder

	row(&b, "MEDICAL CONSULTATION SUMMARY", "")
	row(&b, "Generated On", time.Now().Format(timestampLayout))
	row(&b, "Session ID", s.ID.String())
	row(&b, "Status", status(s))
	row(&b, "", "")

	row(&b, "EXTRACTED MEDICAL DATA", "")
	if s.Record != nil {
		for _, f := range recordFields(s.Record) {
			row(&b, f.name, f.value)
		}
	}
	row(&b, "", "")

	row(&b, "CONVERSATION LOG", "")
	row(&b, "Speaker", "Message", "Timestamp")
	for _, t := range s.Turns {
		speaker := "Patient"
		if t.Speaker == intake.SpeakerAssistant {
			speaker = "AI Assistant"
		}
		msg := strings.NewReplacer("\n", " ", "\r", " ").Replace(t.Text)
		row(&b, speaker, msg, t.Timestamp.Format(time.RFC3339))
	}

	return []byte(b.String()), nil
}

// row writes one CSV line with every field quoted, matching the download
// format healthcare tooling expects.
func row(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`"`)
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteString(`"`)
	}
	b.WriteString("\n")
}

type field struct {
	name  string
	value string
}

func recordFields(r *intake.Record) []field {
	return []field{
		{"Age", scalarInt(r.Age)},
		{"Gender", scalarStr(r.Gender)},
		{"Symptoms", list(r.Symptoms)},
		{"Symptom Duration", scalarStr(r.SymptomDuration)},
		{"Pain Level", scalarInt(r.PainLevel)},
		{"Chronic Conditions", list(r.ChronicConditions)},
		{"Medications", list(r.Medications)},
		{"Allergies", list(r.Allergies)},
		{"Has Fever", scalarBool(r.HasFever)},
		{"Emergency Symptoms", fmt.Sprintf("%t", r.EmergencySymptoms)},
		{"Additional Concerns", list(r.AdditionalConcerns)},
	}
}

func list(values []string) string {
	if len(values) == 0 {
		return "None reported"
	}
	return strings.Join(values, "; ")
}

func scalarInt(v *int) string {
	if v == nil {
		return "Not specified"
	}
	return fmt.Sprintf("%d", *v)
}

func scalarStr(v *string) string {
	if v == nil {
		return "Not specified"
	}
	return *v
}

func scalarBool(v *bool) string {
	if v == nil {
		return "Not specified"
	}
	return fmt.Sprintf("%t", *v)
}

func status(s *intake.Session) string {
	if s.Phase == intake.PhaseAssessmentReady || s.Phase == intake.PhaseCompleted {
		return "completed"
	}
	return "in_progress"
}

// DurationMinutes is the span between the first and last turn, in minutes
// rounded to two decimals. Fewer than two turns means zero.
func DurationMinutes(turns []intake.Turn) float64 {
	if len(turns) < 2 {
		return 0.0
	}
	d := turns[len(turns)-1].Timestamp.Sub(turns[0].Timestamp).Minutes()
	return math.Round(d*100) / 100
}
