package logger

import (
	"strconv"

	"go.uber.org/zap"
)

const (
	// FieldUser is the structured log field key for the requesting user.
	FieldUser = "user_id"
	// FieldResume is the structured log field key for the résumé being matched.
	FieldResume = "resume_id"
	// FieldGeneration is the structured log field key for one recommendation run.
	FieldGeneration = "generation_id"
	// FieldPrompt is the structured log field key for the evaluator prompt.
	FieldPrompt = "prompt_id"
)

// RequestFields returns the fields identifying one recommendation run.
// Non-positive ids and empty generation ids are omitted.
func RequestFields(userID, resumeID int, generationID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldUser, Value: positiveID(userID)},
		StringField{Key: FieldResume, Value: positiveID(resumeID)},
		StringField{Key: FieldGeneration, Value: generationID},
	)
}

// WithRequestFields attaches RequestFields to the logger.
func WithRequestFields(logger *zap.Logger, userID, resumeID int, generationID string) *zap.Logger {
	return WithFields(logger, RequestFields(userID, resumeID, generationID)...)
}

func positiveID(id int) string {
	if id <= 0 {
		return ""
	}
	return strconv.Itoa(id)
}
