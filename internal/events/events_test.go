package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	in  *eventbridge.PutEventsInput
	out *eventbridge.PutEventsOutput
	err error
}

func (f *fakeBus) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestThumbnailGenerated(t *testing.T) {
	bus := &fakeBus{}
	e := NewEmitter(bus, "thumbs")

	require.NoError(t, e.ThumbnailGenerated(context.Background(), ThumbnailEvent{OwnerID: "u1", RecordID: "r1", Title: "My Video"}))
	require.Len(t, bus.in.Entries, 1)
	entry := bus.in.Entries[0]
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, TypeThumbnailGenerated, aws.ToString(entry.DetailType))
	assert.Equal(t, "thumbs", aws.ToString(entry.EventBusName))

	var ev ThumbnailEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &ev))
	assert.Equal(t, "r1", ev.RecordID)
	assert.NotZero(t, ev.Timestamp)
}

func TestEmitFailures(t *testing.T) {
	e := NewEmitter(&fakeBus{err: errors.New("throttled")}, "")
	assert.Error(t, e.ThumbnailDeleted(context.Background(), ThumbnailEvent{RecordID: "r1"}))

	e = NewEmitter(&fakeBus{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []eventbridgetypes.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}}, "")
	err := e.ThumbnailDeleted(context.Background(), ThumbnailEvent{RecordID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InternalFailure")
}

func TestNilEmitterDiscards(t *testing.T) {
	var e *Emitter
	assert.NoError(t, e.ThumbnailGenerated(context.Background(), ThumbnailEvent{}))
}
