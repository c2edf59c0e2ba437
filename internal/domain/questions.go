package domain

// QuestionCount es la cantidad de preguntas demograficas del flujo.
const QuestionCount = 4

var demographicQuestions = [QuestionCount]string{
	"What is your age?",
	"What is your gender? (Male/Female/Other)",
	"What is your occupation?",
	"What country do you live in?",
}

// Questions devuelve el cuestionario demografico en el orden en que se pregunta.
func Questions() []string {
	out := make([]string, QuestionCount)
	copy(out, demographicQuestions[:])
	return out
}

// Question devuelve la pregunta i, o false si i esta fuera de rango.
func Question(i int) (string, bool) {
	if i < 0 || i >= QuestionCount {
		return "", false
	}
	return demographicQuestions[i], true
}

type Answer struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// DemographicRecord es lo que se envia al backend al terminar el cuestionario.
type DemographicRecord struct {
	Username string   `json:"username"`
	Answers  []Answer `json:"answers"`
}
