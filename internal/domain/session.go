package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// State es el estado del controlador de conversacion.
type State string

const (
	StateIdle       State = "idle"
	StateAnalyzing  State = "analyzing"
	StateAsking     State = "asking_question"
	StateRevealing  State = "revealing"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateError      State = "error"
)

// Session representa una conversacion de screening transitoria.
type Session struct {
	ID              string         `json:"id"`
	Username        string         `json:"username"`
	State           State          `json:"state"`
	CurrentQuestion int            `json:"current_question"`
	Classification  Classification `json:"classification"`
	Answers         []Answer       `json:"answers"`
	Messages        []Message      `json:"messages"`
	// LogEpoch se incrementa cada vez que el log se reemplaza completo.
	LogEpoch  int       `json:"log_epoch"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, now time.Time) Session {
	return Session{
		ID:             id,
		State:          StateIdle,
		Classification: ClassificationUnknown,
		Answers:        []Answer{},
		Messages:       []Message{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone devuelve una copia que no comparte slices con el original.
func (s Session) Clone() Session {
	out := s
	out.Answers = append([]Answer(nil), s.Answers...)
	out.Messages = append([]Message(nil), s.Messages...)
	if out.Answers == nil {
		out.Answers = []Answer{}
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return out
}

// InProgress indica si hay un flujo en curso, desde el analisis hasta el envio.
func (s Session) InProgress() bool {
	switch s.State {
	case StateAnalyzing, StateAsking, StateRevealing, StateSubmitting:
		return true
	}
	return false
}

// Complete indica si todas las preguntas tienen respuesta.
func (s Session) Complete() bool {
	return len(s.Answers) == QuestionCount
}

// PendingQuestion devuelve la pregunta que espera respuesta, si la hay.
func (s Session) PendingQuestion() (string, bool) {
	if s.State != StateAsking {
		return "", false
	}
	return Question(s.CurrentQuestion)
}

func (s Session) Record() DemographicRecord {
	return DemographicRecord{
		Username: s.Username,
		Answers:  append([]Answer(nil), s.Answers...),
	}
}

// Affordances describe que entradas puede usar el usuario.
type Affordances struct {
	UsernameEnabled bool `json:"username_enabled"`
	AnswerVisible   bool `json:"answer_visible"`
	RetryAvailable  bool `json:"retry_available"`
}

func (s Session) Affordances() Affordances {
	return Affordances{
		UsernameEnabled: !s.InProgress(),
		AnswerVisible:   s.State == StateAsking,
		RetryAvailable:  s.State == StateError && s.Complete(),
	}
}
