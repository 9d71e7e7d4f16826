package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

// Key layout for the single table.
const (
	ownerPrefix   = "OWNER#"
	sessionPrefix = "SESSION#"
	skThumb       = "THUMB#"
	skMeta        = "META"
)

// DynamoAPI is the subset of the DynamoDB client the store calls.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore implements Store on DynamoDB.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for tableName.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, now: time.Now}
}

func ownerPK(ownerID string) string     { return ownerPrefix + ownerID }
func sessionPK(sessionID string) string { return sessionPrefix + sessionID }

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// putItem marshals data and writes it under pk/sk. A positive ttl adds the
// expiresAt attribute.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data any, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	if ttl > 0 {
		exp := s.now().Add(ttl).Unix()
		item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)}
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// getItem reads pk/sk into out. It reports false when the item is missing.
func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out any) (bool, error) {
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       key(pk, sk),
	})
	if err != nil {
		return false, fmt.Errorf("GetItem PK=%s SK=%s: %w", pk, sk, err)
	}
	if res.Item == nil {
		return false, nil
	}
	if expired(res.Item, s.now()) {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal PK=%s SK=%s: %w", pk, sk, err)
	}
	return true, nil
}

// expired reports whether a TTL'd item is past its expiry. DynamoDB deletes
// expired items lazily, so reads filter them out themselves.
func expired(item map[string]types.AttributeValue, now time.Time) bool {
	n, ok := item["expiresAt"].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return false
	}
	return now.Unix() > exp
}

// deleteItem removes pk/sk. When mustExist is set a missing item yields ErrNotFound.
func (s *DynamoStore) deleteItem(ctx context.Context, pk, sk string, mustExist bool) error {
	in := &dynamodb.DeleteItemInput{
		TableName: &s.tableName,
		Key:       key(pk, sk),
	}
	if mustExist {
		in.ConditionExpression = aws.String("attribute_exists(PK)")
	}
	if _, err := s.client.DeleteItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("DeleteItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// queryBySKPrefix returns every item in pk whose SK begins with skPrefix,
// following pagination.
func (s *DynamoStore) queryBySKPrefix(ctx context.Context, pk, skPrefix string) ([]map[string]types.AttributeValue, error) {
	in := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
			":sk": &types.AttributeValueMemberS{Value: skPrefix},
		},
	}

	var items []map[string]types.AttributeValue
	for {
		res, err := s.client.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("Query PK=%s SK prefix=%s: %w", pk, skPrefix, err)
		}
		items = append(items, res.Items...)
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = res.LastEvaluatedKey
	}
	return items, nil
}

// --- Thumbnail records ---

func (s *DynamoStore) PutRecord(ctx context.Context, rec *ThumbnailRecord) error {
	if rec.ID == "" || rec.OwnerID == "" {
		return errors.New("record id and owner are required")
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now().Unix()
	}
	if err := s.putItem(ctx, ownerPK(rec.OwnerID), skThumb+rec.ID, rec, 0); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}
	log.Debug().Str("ownerId", rec.OwnerID).Str("recordId", rec.ID).Msg("Thumbnail record persisted")
	return nil
}

func (s *DynamoStore) GetRecord(ctx context.Context, ownerID, id string) (*ThumbnailRecord, error) {
	var rec ThumbnailRecord
	found, err := s.getItem(ctx, ownerPK(ownerID), skThumb+id, &rec)
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	rec.ID = id
	rec.OwnerID = ownerID
	return &rec, nil
}

func (s *DynamoStore) ListRecords(ctx context.Context, ownerID string) ([]*ThumbnailRecord, error) {
	items, err := s.queryBySKPrefix(ctx, ownerPK(ownerID), skThumb)
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", ownerID, err)
	}

	recs := make([]*ThumbnailRecord, 0, len(items))
	for _, item := range items {
		var rec ThumbnailRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		if sk, ok := item["SK"].(*types.AttributeValueMemberS); ok {
			rec.ID = sk.Value[len(skThumb):]
		}
		rec.OwnerID = ownerID
		recs = append(recs, &rec)
	}
	sortNewestFirst(recs)
	return recs, nil
}

func (s *DynamoStore) DeleteRecord(ctx context.Context, ownerID, id string) error {
	if err := s.deleteItem(ctx, ownerPK(ownerID), skThumb+id, true); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	log.Debug().Str("ownerId", ownerID).Str("recordId", id).Msg("Thumbnail record deleted")
	return nil
}

// --- Wizard sessions ---

func (s *DynamoStore) PutSession(ctx context.Context, ws *wizard.Session) error {
	if ws.ID == "" {
		return errors.New("session id is required")
	}
	if err := s.putItem(ctx, sessionPK(ws.ID), skMeta, ws, SessionTTL); err != nil {
		return fmt.Errorf("put session %s: %w", ws.ID, err)
	}
	log.Debug().Str("sessionId", ws.ID).Int("step", int(ws.Step)).Msg("Session persisted")
	return nil
}

func (s *DynamoStore) GetSession(ctx context.Context, id string) (*wizard.Session, error) {
	var ws wizard.Session
	found, err := s.getItem(ctx, sessionPK(id), skMeta, &ws)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	ws.ID = id
	return &ws, nil
}

func (s *DynamoStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.deleteItem(ctx, sessionPK(id), skMeta, false); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func sortNewestFirst(recs []*ThumbnailRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt != recs[j].CreatedAt {
			return recs[i].CreatedAt > recs[j].CreatedAt
		}
		return recs[i].ID > recs[j].ID
	})
}
