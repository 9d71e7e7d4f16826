// Package wizard holds the in-progress thumbnail request and the step
// machine that moves it from a face photo to a finished thumbnail.
//
// A Session is an explicit value owned by exactly one writer (a request
// handler, the terminal UI, a test). Nothing in this package keeps
// session state at package level.
package wizard

import (
	"time"
)

// Step is a position in the creation flow.
type Step int

const (
	StepUploadFace Step = iota + 1
	StepVideoInfo
	StepSelectStyle
	StepReview
	StepDone
)

// TotalSteps is the number of steps in the flow, Done included.
const TotalSteps = int(StepDone)

var stepLabels = map[Step]string{
	StepUploadFace:  "Upload Face",
	StepVideoInfo:   "Video Info",
	StepSelectStyle: "Select Style",
	StepReview:      "Generate",
	StepDone:        "Done",
}

// String returns the label shown in the step indicator.
func (s Step) String() string {
	if l, ok := stepLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// Valid reports whether s lies within the flow.
func (s Step) Valid() bool {
	return s >= StepUploadFace && s <= StepDone
}

// Field names a settable session field.
type Field string

const (
	FieldFaceImage          Field = "faceImage"
	FieldVideoTitle         Field = "videoTitle"
	FieldVideoDescription   Field = "videoDescription"
	FieldThumbnailDetails   Field = "thumbnailDetails"
	FieldThumbnailText      Field = "thumbnailText"
	FieldSelectedStyle      Field = "selectedStyle"
	FieldGeneratedThumbnail Field = "generatedThumbnail"
)

var knownFields = map[Field]bool{
	FieldFaceImage:          true,
	FieldVideoTitle:         true,
	FieldVideoDescription:   true,
	FieldThumbnailDetails:   true,
	FieldThumbnailText:      true,
	FieldSelectedStyle:      true,
	FieldGeneratedThumbnail: true,
}

// ParseField maps a wire name to a Field. The bool is false for unknown names.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	return f, knownFields[f]
}

// Session is the state of one user's pass through the wizard.
//
// Empty strings mean "unset" for every optional reference. ID and OwnerID
// are the envelope used by server-side persistence and survive Reset.
type Session struct {
	ID      string `json:"id" dynamodbav:"-"`
	OwnerID string `json:"ownerId,omitempty" dynamodbav:"ownerId,omitempty"`

	Step                  Step   `json:"step" dynamodbav:"step"`
	FaceImageRef          string `json:"faceImage,omitempty" dynamodbav:"faceImage,omitempty"`
	VideoTitle            string `json:"videoTitle" dynamodbav:"videoTitle"`
	VideoDescription      string `json:"videoDescription" dynamodbav:"videoDescription"`
	ThumbnailDetails      string `json:"thumbnailDetails" dynamodbav:"thumbnailDetails"`
	ThumbnailText         string `json:"thumbnailText" dynamodbav:"thumbnailText"`
	SelectedStyleID       string `json:"selectedStyle,omitempty" dynamodbav:"selectedStyle,omitempty"`
	GeneratedThumbnailRef string `json:"generatedThumbnail,omitempty" dynamodbav:"generatedThumbnail,omitempty"`
	GeneratedDescription  string `json:"generatedDescription,omitempty" dynamodbav:"generatedDescription,omitempty"`

	// RecordID is the most recent ThumbnailRecord saved from this session.
	RecordID string `json:"recordId,omitempty" dynamodbav:"recordId,omitempty"`

	// Generation is bumped on every Reset. A generation result carries the
	// value it started with and is discarded when it no longer matches.
	Generation int `json:"generation" dynamodbav:"generation"`

	CreatedAt int64 `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" dynamodbav:"updatedAt"`
}

// New returns a session at the first step with every field empty.
func New(id, ownerID string) *Session {
	now := time.Now().Unix()
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		Step:      StepUploadFace,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetField stores value under f without validation. Unknown fields are ignored;
// callers at the wire boundary use ParseField first.
func (s *Session) SetField(f Field, value string) {
	switch f {
	case FieldFaceImage:
		s.FaceImageRef = value
	case FieldVideoTitle:
		s.VideoTitle = value
	case FieldVideoDescription:
		s.VideoDescription = value
	case FieldThumbnailDetails:
		s.ThumbnailDetails = value
	case FieldThumbnailText:
		s.ThumbnailText = value
	case FieldSelectedStyle:
		s.SelectedStyleID = value
	case FieldGeneratedThumbnail:
		s.GeneratedThumbnailRef = value
	default:
		return
	}
	s.touch()
}

// Field returns the current value of f.
func (s *Session) Field(f Field) string {
	switch f {
	case FieldFaceImage:
		return s.FaceImageRef
	case FieldVideoTitle:
		return s.VideoTitle
	case FieldVideoDescription:
		return s.VideoDescription
	case FieldThumbnailDetails:
		return s.ThumbnailDetails
	case FieldThumbnailText:
		return s.ThumbnailText
	case FieldSelectedStyle:
		return s.SelectedStyleID
	case FieldGeneratedThumbnail:
		return s.GeneratedThumbnailRef
	}
	return ""
}

// GoToStep moves directly to n, clamped into [StepUploadFace, StepDone].
// No gate is checked; the Sequencer is the only caller that moves forward.
func (s *Session) GoToStep(n Step) {
	switch {
	case n < StepUploadFace:
		n = StepUploadFace
	case n > StepDone:
		n = StepDone
	}
	s.Step = n
	s.touch()
}

// Reset restores the initial value. The envelope (ID, OwnerID, CreatedAt)
// is kept and the generation counter advances so in-flight results are dropped.
func (s *Session) Reset() {
	*s = Session{
		ID:         s.ID,
		OwnerID:    s.OwnerID,
		Step:       StepUploadFace,
		Generation: s.Generation + 1,
		CreatedAt:  s.CreatedAt,
	}
	s.touch()
}

// HasResult reports whether a generated thumbnail is present.
func (s *Session) HasResult() bool {
	return s.GeneratedThumbnailRef != ""
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().Unix()
}
