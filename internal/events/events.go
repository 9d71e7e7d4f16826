// Package events publishes thumbnail lifecycle notifications to EventBridge.
// Emission is best-effort: callers log a failure and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog/log"
)

// Source is the EventBridge source of every event emitted here.
const Source = "yt-thumbnail-wizard"

// Detail types.
const (
	TypeThumbnailGenerated = "ThumbnailGenerated"
	TypeThumbnailDeleted   = "ThumbnailDeleted"
)

// API is the subset of *eventbridge.Client used here.
type API interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// ThumbnailEvent is the detail payload for both event types.
type ThumbnailEvent struct {
	OwnerID      string `json:"ownerId"`
	RecordID     string `json:"recordId,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	Title        string `json:"title,omitempty"`
	StyleID      string `json:"styleId,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// Emitter publishes to one event bus. A nil *Emitter discards events, so
// callers need not check whether a bus is configured.
type Emitter struct {
	client  API
	busName string
}

// NewEmitter returns an Emitter for busName. An empty busName targets the
// account's default bus.
func NewEmitter(client API, busName string) *Emitter {
	return &Emitter{client: client, busName: busName}
}

// ThumbnailGenerated announces a completed generation.
func (e *Emitter) ThumbnailGenerated(ctx context.Context, ev ThumbnailEvent) error {
	return e.emit(ctx, TypeThumbnailGenerated, ev)
}

// ThumbnailDeleted announces a deleted record.
func (e *Emitter) ThumbnailDeleted(ctx context.Context, ev ThumbnailEvent) error {
	return e.emit(ctx, TypeThumbnailDeleted, ev)
}

func (e *Emitter) emit(ctx context.Context, detailType string, ev ThumbnailEvent) error {
	if e == nil || e.client == nil {
		return nil
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	detail, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", detailType, err)
	}

	entry := eventbridgetypes.PutEventsRequestEntry{
		Source:     aws.String(Source),
		DetailType: aws.String(detailType),
		Detail:     aws.String(string(detail)),
	}
	if e.busName != "" {
		entry.EventBusName = aws.String(e.busName)
	}

	result, err := e.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{entry},
	})
	if err != nil {
		log.Error().Err(err).Str("recordId", ev.RecordID).Str("eventType", detailType).Msg("EventBridge PutEvents failed")
		return fmt.Errorf("PutEvents: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil || entry.ErrorMessage != nil {
				log.Error().
					Int("index", i).
					Str("errorCode", aws.ToString(entry.ErrorCode)).
					Str("errorMessage", aws.ToString(entry.ErrorMessage)).
					Str("recordId", ev.RecordID).
					Str("eventType", detailType).
					Msg("EventBridge PutEvents entry failed")
				return fmt.Errorf("PutEvents entry %d failed: %s - %s", i, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
	}

	log.Debug().Str("recordId", ev.RecordID).Str("eventType", detailType).Msg("Thumbnail event emitted to EventBridge")
	return nil
}
