// Package conversation contiene las transiciones puras del flujo de screening.
// Ninguna funcion hace I/O: reciben una sesion y devuelven la siguiente junto
// con el efecto que el llamador debe ejecutar.
package conversation

import (
	"strings"
	"time"

	"moodcheck/internal/domain"
)

// Effect es el efecto que el llamador debe ejecutar tras una transicion.
type Effect int

const (
	EffectNone Effect = iota
	EffectRequestAnalysis
	EffectScheduleReveal
	EffectSubmit
)

func (e Effect) String() string {
	switch e {
	case EffectRequestAnalysis:
		return "request_analysis"
	case EffectScheduleReveal:
		return "schedule_reveal"
	case EffectSubmit:
		return "submit"
	default:
		return "none"
	}
}

// StartAnalysis pasa la sesion a Analyzing. Un username vacio o un flujo en
// curso dejan la sesion sin cambios.
func StartAnalysis(s domain.Session, username string, now time.Time) (domain.Session, Effect) {
	username = strings.TrimSpace(username)
	if username == "" || s.InProgress() {
		return s, EffectNone
	}
	next := s.Clone()
	next.Username = username
	next.State = domain.StateAnalyzing
	next.CurrentQuestion = 0
	next.Classification = domain.ClassificationUnknown
	next.Answers = []domain.Answer{}
	next.UpdatedAt = now
	return next, EffectRequestAnalysis
}

// AnalysisSucceeded reemplaza el log con el resultado y hace la primera pregunta.
func AnalysisSucceeded(s domain.Session, c domain.Classification, now time.Time) domain.Session {
	if s.State != domain.StateAnalyzing {
		return s
	}
	next := s.Clone()
	next.Classification = c
	next.Messages = []domain.Message{domain.SystemMessage(c.Label(), now)}
	next.LogEpoch++
	next.CurrentQuestion = 0
	first, _ := domain.Question(0)
	next.Messages = append(next.Messages, domain.SystemMessage(first, now))
	next.State = domain.StateAsking
	next.UpdatedAt = now
	return next
}

func AnalysisFailed(s domain.Session, now time.Time) domain.Session {
	if s.State != domain.StateAnalyzing {
		return s
	}
	next := s.Clone()
	next.Classification = domain.ClassificationError
	next.Answers = []domain.Answer{}
	next.Messages = []domain.Message{domain.SystemMessage(domain.AnalysisErrorText, now)}
	next.LogEpoch++
	next.State = domain.StateError
	next.UpdatedAt = now
	return next
}

// SubmitAnswer registra la respuesta de la pregunta pendiente. Texto vacio o una
// sesion sin pregunta pendiente devuelven EffectNone.
func SubmitAnswer(s domain.Session, text string, now time.Time) (domain.Session, Effect) {
	text = strings.TrimSpace(text)
	question, ok := s.PendingQuestion()
	if !ok || text == "" {
		return s, EffectNone
	}
	next := s.Clone()
	next.Messages = append(next.Messages, domain.UserMessage(text, now))
	next.Answers = append(next.Answers, domain.Answer{Question: question, Text: text})
	next.UpdatedAt = now
	if next.CurrentQuestion+1 < domain.QuestionCount {
		next.CurrentQuestion++
		next.State = domain.StateRevealing
		return next, EffectScheduleReveal
	}
	next.CurrentQuestion = domain.QuestionCount
	next.State = domain.StateSubmitting
	return next, EffectSubmit
}

// RevealNextQuestion termina la demora de visualizacion. El bool es false si la
// sesion no esperaba una pregunta.
func RevealNextQuestion(s domain.Session, now time.Time) (domain.Session, bool) {
	if s.State != domain.StateRevealing {
		return s, false
	}
	question, ok := domain.Question(s.CurrentQuestion)
	if !ok {
		return s, false
	}
	next := s.Clone()
	next.Messages = append(next.Messages, domain.SystemMessage(question, now))
	next.State = domain.StateAsking
	next.UpdatedAt = now
	return next, true
}

func SubmissionSucceeded(s domain.Session, now time.Time) domain.Session {
	if s.State != domain.StateSubmitting {
		return s
	}
	next := s.Clone()
	next.Messages = append(next.Messages, domain.SystemMessage(domain.ConfirmationText, now))
	next.State = domain.StateDone
	next.UpdatedAt = now
	return next
}

// SubmissionFailed conserva las respuestas para poder reenviar el registro.
func SubmissionFailed(s domain.Session, now time.Time) domain.Session {
	if s.State != domain.StateSubmitting {
		return s
	}
	next := s.Clone()
	next.Messages = append(next.Messages, domain.SystemMessage(domain.SubmissionErrorText, now))
	next.State = domain.StateError
	next.UpdatedAt = now
	return next
}

// RetrySubmission vuelve a Submitting despues de un envio fallido.
func RetrySubmission(s domain.Session, now time.Time) (domain.Session, Effect) {
	if !s.Affordances().RetryAvailable {
		return s, EffectNone
	}
	next := s.Clone()
	next.State = domain.StateSubmitting
	next.UpdatedAt = now
	return next, EffectSubmit
}
