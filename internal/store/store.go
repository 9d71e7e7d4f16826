// Package store persists finished thumbnails and in-progress wizard sessions.
//
// The DynamoDB implementation uses one table. Thumbnail records live under
// the owner's partition (OWNER#{ownerId}, SK THUMB#{recordId}) and never
// expire. Wizard sessions live under SESSION#{sessionId} with SK META and
// carry an expiresAt TTL so abandoned flows clean themselves up.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

// SessionTTL is how long an untouched wizard session is kept.
const SessionTTL = 24 * time.Hour

// ErrNotFound is returned by deletes that target a missing item.
var ErrNotFound = errors.New("not found")

// ThumbnailRecord is one completed generation owned by a signed-in user.
// Records are created once and only ever deleted.
type ThumbnailRecord struct {
	ID                 string `json:"id" dynamodbav:"-"`
	OwnerID            string `json:"ownerId" dynamodbav:"-"`
	Title              string `json:"title" dynamodbav:"title"`
	Description        string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	StyleID            string `json:"styleId,omitempty" dynamodbav:"styleId,omitempty"`
	SourceFaceImageURL string `json:"sourceFaceImageUrl,omitempty" dynamodbav:"sourceFaceImageUrl,omitempty"`
	ResultThumbnailURL string `json:"resultThumbnailUrl" dynamodbav:"resultThumbnailUrl"`
	CreatedAt          int64  `json:"createdAt" dynamodbav:"createdAt"`
}

// RecordStore keeps ThumbnailRecords keyed by owner and record id.
//
// Get returns (nil, nil) when the record does not exist. List returns the
// owner's records newest first.
type RecordStore interface {
	PutRecord(ctx context.Context, rec *ThumbnailRecord) error
	GetRecord(ctx context.Context, ownerID, id string) (*ThumbnailRecord, error)
	ListRecords(ctx context.Context, ownerID string) ([]*ThumbnailRecord, error)
	DeleteRecord(ctx context.Context, ownerID, id string) error
}

// SessionStore keeps server-side wizard sessions. Put is a full-item
// replacement, so the last writer wins. Get returns (nil, nil) when the
// session does not exist or has expired.
type SessionStore interface {
	PutSession(ctx context.Context, s *wizard.Session) error
	GetSession(ctx context.Context, id string) (*wizard.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Store is both stores backed by one table.
type Store interface {
	RecordStore
	SessionStore
}
