package generate

import (
	"errors"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
)

// UpstreamError is a failure of the model API or of fetching the face
// image. Message is safe to show to the user.
type UpstreamError struct {
	Kind    auth.ErrorType
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is an *UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// ClientMessage returns the message to show for err, hiding internals of
// anything that is not a request or upstream error.
func ClientMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return "thumbnail generation failed"
}

func upstreamFromModel(err error) *UpstreamError {
	c := auth.ClassifyError(err)
	msg := "thumbnail generation failed, please try again"
	switch c.Type {
	case auth.ErrTypeQuotaExceeded:
		msg = "thumbnail service is busy, please try again shortly"
	case auth.ErrTypeInvalidKey:
		msg = "thumbnail service is misconfigured"
	}
	return &UpstreamError{Kind: c.Type, Message: msg, Err: err}
}
