package generate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request is the generation proxy's input. FaceImage is an http(s) URL or a
// data: URI; Style is a style id from the catalog.
type Request struct {
	FaceImage        string `json:"faceImage" validate:"notblank"`
	VideoTitle       string `json:"videoTitle" validate:"notblank,max=300"`
	VideoDescription string `json:"videoDescription,omitempty" validate:"max=5000"`
	ThumbnailDetails string `json:"thumbnailDetails,omitempty" validate:"max=2000"`
	ThumbnailText    string `json:"thumbnailText,omitempty" validate:"max=200"`
	Style            string `json:"style,omitempty" validate:"max=200"`
}

// Response is returned on success. Warning is set when the result could not
// be saved to the caller's history.
type Response struct {
	ThumbnailURL string `json:"thumbnailUrl"`
	Description  string `json:"description"`
	Warning      string `json:"warning,omitempty"`
	RecordID     string `json:"recordId,omitempty"`
}

// ErrInvalidRequest matches every *RequestError.
var ErrInvalidRequest = errors.New("invalid generation request")

// RequestError reports a request that failed validation.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

var fieldLabels = map[string]string{
	"FaceImage":        "face image",
	"VideoTitle":       "title",
	"VideoDescription": "video description",
	"ThumbnailDetails": "thumbnail details",
	"ThumbnailText":    "thumbnail text",
	"Style":            "style",
}

// Validate checks req and returns a *RequestError naming the first problem.
func (req *Request) Validate() error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &RequestError{Message: err.Error()}
	}
	fe := verrs[0]
	label := fieldLabels[fe.StructField()]
	switch fe.Tag() {
	case "notblank":
		return &RequestError{Message: label + " required"}
	case "max":
		return &RequestError{Message: fmt.Sprintf("%s must be at most %s characters", label, fe.Param())}
	default:
		return &RequestError{Message: label + " is invalid"}
	}
}
