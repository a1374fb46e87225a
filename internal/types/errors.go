package types

import "errors"

// Failure classes. Collaborator errors are wrapped with fmt.Errorf("%w: %w")
// so errors.Is classifies them and the message keeps the detail.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("session not found")
	ErrMediaIO       = errors.New("media io error")
	ErrTranscription = errors.New("transcription error")
	ErrConflict      = errors.New("session version conflict")
)

// ClientError reports whether err is the caller's fault rather than a
// collaborator or server failure.
func ClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
