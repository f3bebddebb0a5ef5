package services

import "errors"

// Общие ошибки сервисного слоя, маппятся в HTTP-статусы в handlers.
var (
	ErrSessionNotFound = errors.New("simulation session not found")
	ErrGroupNotFound   = errors.New("group not found")

	// Ошибки валидации
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidScore     = errors.New("score must be empty or an integer between 0 and 99")
	ErrInvalidStage     = errors.New("invalid stage")

	ErrSessionLimitReached = errors.New("too many active simulation sessions")
	ErrExportDisabled      = errors.New("snapshot export is not configured")
	ErrHistoryDisabled     = errors.New("score edit history is not configured")
	ErrExportFailed        = errors.New("failed to export snapshot")
)
