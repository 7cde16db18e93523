package topics

const (
	// Predições
	PredictionMade = "prediction_made"

	// DLQs
	PredictionMadeDLQ = "prediction_made_dlq"
)
