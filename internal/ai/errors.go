package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMedia is returned for uploads that are neither an image, a
	// PDF nor an audio recording.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrNotJSONObject is returned when the model output is valid JSON but not an object.
	ErrNotJSONObject = errors.New("model response is not a JSON object")
)

// ExtractionError wraps every failure of the extraction adapter with the step
// that failed.
type ExtractionError struct {
	// Op is the step that failed: "transcribe", "request", "parse" or "extract".
	Op string

	// Err is the underlying error.
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %s failed: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// wrapExtraction wraps err as an ExtractionError unless it already is one.
func wrapExtraction(op string, err error) error {
	if err == nil {
		return nil
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}
	return &ExtractionError{Op: op, Err: err}
}
