package wizard

import (
	"errors"
	"strings"
)

// WarnNoStyle is returned by Advance when leaving the style step with no selection.
const WarnNoStyle = "no style selected, default styling applies"

// ErrStaleResult is returned by Complete when the session was reset after
// the generation started.
var ErrStaleResult = errors.New("generation result belongs to a reset session")

// ValidationError reports a missing prerequisite for leaving a step.
// The session is left unchanged.
type ValidationError struct {
	Step    Step
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Result is the outcome of one generation attempt for a session.
type Result struct {
	ThumbnailURL string
	Description  string
	// Generation is the session's Generation value when the attempt started.
	Generation int
}

// Advance moves s forward by exactly one step if the current step's gate
// passes. A non-empty warning is returned for soft gates that still proceed.
// Advancing from Done is a no-op.
func Advance(s *Session) (warning string, err error) {
	if err := gate(s); err != nil {
		return "", err
	}
	if s.Step == StepSelectStyle && s.SelectedStyleID == "" {
		warning = WarnNoStyle
	}
	if s.Step < StepDone {
		s.GoToStep(s.Step + 1)
	}
	return warning, nil
}

// Retreat moves s back by one step. It reports false at the first step,
// where it does nothing.
func Retreat(s *Session) bool {
	if s.Step <= StepUploadFace {
		return false
	}
	s.GoToStep(s.Step - 1)
	return true
}

// CheckGenerate reports whether s carries everything a generation request needs.
func CheckGenerate(s *Session) error {
	if s.FaceImageRef == "" {
		return &ValidationError{Step: StepUploadFace, Field: FieldFaceImage, Message: "face image required"}
	}
	if strings.TrimSpace(s.VideoTitle) == "" {
		return &ValidationError{Step: StepVideoInfo, Field: FieldVideoTitle, Message: "title required"}
	}
	return nil
}

// Complete records a finished generation and moves s to Done. A result whose
// generation no longer matches the session is discarded with ErrStaleResult.
func Complete(s *Session, r Result) error {
	if r.Generation != s.Generation {
		return ErrStaleResult
	}
	if r.ThumbnailURL == "" {
		return &ValidationError{Step: StepReview, Field: FieldGeneratedThumbnail, Message: "generation returned no thumbnail"}
	}
	s.GeneratedThumbnailRef = r.ThumbnailURL
	s.GeneratedDescription = r.Description
	s.GoToStep(StepDone)
	return nil
}

// EnsureReachable sends a session sitting on Done without a result back to
// Review. It reports whether a redirect happened.
func EnsureReachable(s *Session) bool {
	if s.Step == StepDone && !s.HasResult() {
		s.GoToStep(StepReview)
		return true
	}
	return false
}

func gate(s *Session) error {
	switch s.Step {
	case StepUploadFace:
		if s.FaceImageRef == "" {
			return &ValidationError{Step: s.Step, Field: FieldFaceImage, Message: "face image required"}
		}
	case StepVideoInfo:
		if strings.TrimSpace(s.VideoTitle) == "" {
			return &ValidationError{Step: s.Step, Field: FieldVideoTitle, Message: "title required"}
		}
	case StepReview:
		if !s.HasResult() {
			return &ValidationError{Step: s.Step, Field: FieldGeneratedThumbnail, Message: "generation required"}
		}
	}
	return nil
}
