package segments

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/solatis/pricekeeper/internal/core/metrics"
)

// DefaultKeyPrefix namespaces segment member sets: segment:{id}:members.
const DefaultKeyPrefix = "segment"

// RedisResolver reads segment membership from Redis sets maintained by the
// segmentation job. Lookups are pipelined into one round trip per request.
//
// Redis failures degrade to "not a member": the client is priced without
// segment-targeted rules rather than failing the quote.
type RedisResolver struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewRedisResolver creates a resolver over client.
func NewRedisResolver(client redis.UniversalClient, logger *zap.Logger, m *metrics.Metrics) *RedisResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResolver{
		client:    client,
		keyPrefix: DefaultKeyPrefix,
		logger:    logger,
		metrics:   m,
	}
}

func (r *RedisResolver) membersKey(segmentID string) string {
	return fmt.Sprintf("%s:%s:members", r.keyPrefix, segmentID)
}

// Resolve implements Resolver.
func (r *RedisResolver) Resolve(ctx context.Context, clientID string, segmentIDs []string) Set {
	set := NewSet()
	if clientID == "" || len(segmentIDs) == 0 {
		return set
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.BoolCmd, len(segmentIDs))
	for i, id := range segmentIDs {
		cmds[i] = pipe.SIsMember(ctx, r.membersKey(id), clientID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.metrics.SegmentLookupFailed()
		r.logger.Warn("segment lookup failed, treating client as non-member",
			zap.String("client_id", clientID),
			zap.Strings("segment_ids", segmentIDs),
			zap.Error(err))
		return set
	}

	for i, cmd := range cmds {
		if ok, err := cmd.Result(); err == nil && ok {
			set.Add(segmentIDs[i], clientID)
		}
	}
	return set
}

// AddMembers adds clientIDs to segmentID.
func (r *RedisResolver) AddMembers(ctx context.Context, segmentID string, clientIDs ...string) error {
	if len(clientIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(clientIDs))
	for i, id := range clientIDs {
		members[i] = id
	}
	if err := r.client.SAdd(ctx, r.membersKey(segmentID), members...).Err(); err != nil {
		return fmt.Errorf("failed to add segment members: %w", err)
	}
	return nil
}

// RemoveMembers removes clientIDs from segmentID.
func (r *RedisResolver) RemoveMembers(ctx context.Context, segmentID string, clientIDs ...string) error {
	if len(clientIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(clientIDs))
	for i, id := range clientIDs {
		members[i] = id
	}
	if err := r.client.SRem(ctx, r.membersKey(segmentID), members...).Err(); err != nil {
		return fmt.Errorf("failed to remove segment members: %w", err)
	}
	return nil
}
