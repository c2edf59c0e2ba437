package domain

import "time"

// Origin indica quien emitio un mensaje del chat.
type Origin string

const (
	OriginSystem Origin = "system"
	OriginUser   Origin = "user"
)

type Message struct {
	Text      string    `json:"text"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

func SystemMessage(text string, at time.Time) Message {
	return Message{Text: text, Origin: OriginSystem, CreatedAt: at}
}

func UserMessage(text string, at time.Time) Message {
	return Message{Text: text, Origin: OriginUser, CreatedAt: at}
}

// Textos fijos que el bot muestra fuera del cuestionario.
const (
	AnalysisErrorText   = "Error analyzing user."
	SubmissionErrorText = "Error saving your data."
	ConfirmationText    = "Thank you! Your data has been saved."
)
