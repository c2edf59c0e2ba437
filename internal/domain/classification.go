package domain

// Classification es el resultado binario del endpoint de prediccion.
type Classification string

const (
	ClassificationUnknown         Classification = "unknown"
	ClassificationLikelyDepressed Classification = "likely_depressed"
	ClassificationNotDepressed    Classification = "not_depressed"
	ClassificationError           Classification = "error"
)

// Label devuelve el texto que se muestra al usuario.
func (c Classification) Label() string {
	switch c {
	case ClassificationLikelyDepressed:
		return "Likely Depressed"
	case ClassificationNotDepressed:
		return "Not Depressed"
	case ClassificationError:
		return AnalysisErrorText
	default:
		return ""
	}
}

// ClassificationFromFlag mapea la respuesta 0|1 del modelo.
func ClassificationFromFlag(depressed bool) Classification {
	if depressed {
		return ClassificationLikelyDepressed
	}
	return ClassificationNotDepressed
}
