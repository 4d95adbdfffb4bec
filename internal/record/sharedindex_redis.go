package record

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "healthchain/internal/platform/redis"
	id "healthchain/pkg/domain"
	"healthchain/pkg/requestcontext"
)

// RedisIndex backs the sharing index with one Redis sorted set per grantee,
// scored by grant time so List preserves grant order. ZADD NX keeps the
// original score on a re-grant, matching the in-memory duplicate rule.
type RedisIndex struct {
	client *platformredis.Client
}

func NewRedisIndex(client *platformredis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func indexKey(grantee id.UserID) string {
	return "sharedindex:" + grantee.String()
}

func nowScore(ctx context.Context) int64 {
	return requestcontext.Now(ctx).UnixNano()
}

func (s *RedisIndex) Add(ctx context.Context, grantee id.UserID, recordID id.RecordID) error {
	err := s.client.ZAddNX(ctx, indexKey(grantee), goredis.Z{
		Score:  float64(nowScore(ctx)),
		Member: recordID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("index add: %w", err)
	}
	return nil
}

func (s *RedisIndex) Remove(ctx context.Context, grantee id.UserID, recordID id.RecordID) error {
	if err := s.client.ZRem(ctx, indexKey(grantee), recordID.String()).Err(); err != nil {
		return fmt.Errorf("index remove: %w", err)
	}
	return nil
}

func (s *RedisIndex) List(ctx context.Context, grantee id.UserID) ([]id.RecordID, error) {
	members, err := s.client.ZRange(ctx, indexKey(grantee), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("index list: %w", err)
	}
	recordIDs := make([]id.RecordID, 0, len(members))
	for _, m := range members {
		recordIDs = append(recordIDs, id.RecordID(m))
	}
	return recordIDs, nil
}
