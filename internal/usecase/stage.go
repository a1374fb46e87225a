package usecase

import (
	"errors"
	"fmt"
)

// Stage is a step of the preview/render state machine.
type Stage string

const (
	StageUploaded       Stage = "uploaded"
	StageAudioExtracted Stage = "audio_extracted"
	StageTranscribed    Stage = "transcribed"
	StageCensored       Stage = "censored"
	StagePreviewReady   Stage = "preview_ready"
	StageEdited         Stage = "edited"
	StageRendering      Stage = "rendering"
	StageRendered       Stage = "rendered"
	StageFailed         Stage = "failed"
)

// StageError records the stage that was being entered when the pipeline
// failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func failAt(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
