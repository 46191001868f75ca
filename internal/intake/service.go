package intake

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"medical-intake-agent/internal/llm"
)

const (
	chatMaxTokens = 500
	// contextWindow caps how many prior turns go back to the model.
	contextWindow = 10
)

var (
	// ErrNoCredential means the LLM key is missing; interviews cannot start.
	ErrNoCredential = errors.New("llm credential is not configured")
	// ErrInterviewOver is returned for user messages after the interview phase.
	ErrInterviewOver = errors.New("interview is no longer accepting messages")
	// ErrNotReady is returned when assessment is requested before the model
	// has signaled it has enough information.
	ErrNotReady = errors.New("session is not ready for assessment")
)

// Completer is the slice of the LLM gateway this package needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, maxTokens int) (string, error)
}

// DiagnosisLookup is the optional symptom-to-condition enrichment.
type DiagnosisLookup interface {
	Lookup(ctx context.Context, symptoms []string, age *int, gender *string, history []string) (json.RawMessage, bool)
}

type Service interface {
	Start(ctx context.Context) (*Session, error)
	HandleMessage(ctx context.Context, sessionID uuid.UUID, text string) (*Session, error)
	GenerateAssessment(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
}

type service struct {
	repo          Repository
	ai            Completer
	lookup        DiagnosisLookup
	hasCredential bool

	// One lock per session keeps transitions sequential: a second gateway
	// call must never start while the first is still shaping the transcript.
	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewService(repo Repository, ai Completer, lookup DiagnosisLookup, hasCredential bool) Service {
	return &service{
		repo:          repo,
		ai:            ai,
		lookup:        lookup,
		hasCredential: hasCredential,
		locks:         make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *service) sessionLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

func (s *service) Start(ctx context.Context) (*Session, error) {
	if !s.hasCredential {
		return nil, ErrNoCredential
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.New(),
		Turns:     []Turn{},
		Phase:     PhaseInterviewing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	session.append(SpeakerAssistant, openingMessage)

	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}
	log.Info().Str("session_id", session.ID.String()).Msg("interview started")
	return session, nil
}

func (s *service) HandleMessage(ctx context.Context, sessionID uuid.UUID, text string) (*Session, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != PhaseInterviewing {
		return nil, ErrInterviewOver
	}

	session.append(SpeakerUser, text)

	reply, err := s.ai.Complete(ctx, s.chatContext(session, text), chatMaxTokens)
	if err != nil {
		// Transient gateway failures must not end the interview.
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("gateway failed, substituting apology")
		session.append(SpeakerAssistant, apologyMessage)
	} else {
		if strings.Contains(reply, ReadyMarker) {
			reply = strings.TrimSpace(strings.ReplaceAll(reply, ReadyMarker, ""))
			session.Phase = PhaseAssessmentReady
			log.Info().Str("session_id", sessionID.String()).Msg("interview ready for assessment")
		}
		session.append(SpeakerAssistant, reply)
	}

	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// chatContext builds the message window for one interview exchange: system
// prompt, the most recent prior turns, then the new user message. The new
// message is already appended to session.Turns, so it is excluded from the
// history slice.
func (s *service) chatContext(session *Session, userText string) []llm.Message {
	messages := []llm.Message{{Role: "system", Content: interviewSystemPrompt}}

	history := session.Turns[:len(session.Turns)-1]
	if len(history) > contextWindow {
		history = history[len(history)-contextWindow:]
	}
	for _, t := range history {
		role := "user"
		if t.Speaker == SpeakerAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}

	return append(messages, llm.Message{Role: "user", Content: userText})
}

func (s *service) GenerateAssessment(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != PhaseAssessmentReady {
		return nil, ErrNotReady
	}

	ext := &extractor{ai: s.ai}
	record := ext.Extract(ctx, transcriptText(session.Turns))
	session.Record = record

	if diag, ok := s.lookup.Lookup(ctx, record.Symptoms, record.Age, record.Gender, record.ChronicConditions); ok {
		session.Diagnosis = diag
	}

	comp := &composer{ai: s.ai}
	session.Report = comp.Compose(ctx, record, session.Diagnosis)
	session.Phase = PhaseCompleted
	session.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}
	log.Info().
		Str("session_id", sessionID.String()).
		Int("symptoms", len(record.Symptoms)).
		Bool("diagnosis_attached", session.Diagnosis != nil).
		Msg("assessment generated")
	return session, nil
}

func (s *service) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

func (s *service) Reset(ctx context.Context, sessionID uuid.UUID) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.locksMu.Lock()
	delete(s.locks, sessionID)
	s.locksMu.Unlock()
	log.Info().Str("session_id", sessionID.String()).Msg("session reset")
	return nil
}
