// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package auth

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/constants"
)

// # Redis Session Registry
//
// Each issued token gets one hash keyed by its token id, expiring at the
// token's natural expiry so the registry garbage-collects itself. A per-
// principal sorted set (scored by issue time) supports session listing.
//
// Redis executes single-key commands atomically, which gives the required
// linearization: once Revoke returns, no IsRevoked call can miss the flag.

// Hash field names for a session record.
const (
	fieldPrincipal = "pid"
	fieldIssuedAt  = "iat"
	fieldExpiresAt = "exp"
	fieldRevokedAt = "rev"
	fieldIP        = "ip"
	fieldUserAgent = "ua"
)

// RedisSessionRegistry implements [SessionRegistry] on top of Redis.
type RedisSessionRegistry struct {
	client *redis.Client
}

// NewSessionRegistry creates a Redis-backed session registry.
func NewSessionRegistry(client *redis.Client) *RedisSessionRegistry {
	return &RedisSessionRegistry{client: client}
}

func sessionKey(tokenID string) string {
	return constants.RedisPrefixSession + tokenID
}

func principalIndexKey(principalID string) string {
	return constants.RedisPrefixPrincipalSessions + principalID
}

// registryErr tags a storage failure so the evaluator (and callers using
// errors.Is) can recognize it as registry unavailability and fail closed.
func registryErr(op string, err error) error {
	return fmt.Errorf("session_registry_%s_failed: %w: %v", op, authz.ErrRegistryUnavailable, err)
}

// Record inserts the session record, keyed by token id.
//
// Idempotency comes from HSETNX on the principal field: a second Record for
// the same token id finds the field already set and leaves the record alone.
func (registry *RedisSessionRegistry) Record(ctx context.Context, record *SessionRecord) error {
	timeToLive := time.Until(record.ExpiresAt)
	if timeToLive <= 0 {
		// Already past natural expiry; the registry never needs it.
		return nil
	}

	key := sessionKey(record.TokenID)
	created, err := registry.client.HSetNX(ctx, key, fieldPrincipal, record.PrincipalID).Result()
	if err != nil {
		return registryErr("record", err)
	}
	if !created {
		return nil
	}

	pipe := registry.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldIssuedAt, record.IssuedAt.UnixMilli(),
		fieldExpiresAt, record.ExpiresAt.UnixMilli(),
		fieldIP, record.IPAddress,
		fieldUserAgent, record.UserAgent,
	)
	pipe.Expire(ctx, key, timeToLive)
	pipe.ZAdd(ctx, principalIndexKey(record.PrincipalID), redis.Z{
		Score:  float64(record.IssuedAt.UnixMilli()),
		Member: record.TokenID,
	})
	// The index outlives individual sessions; refresh its TTL on every insert.
	pipe.Expire(ctx, principalIndexKey(record.PrincipalID), RefreshTokenTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return registryErr("record", err)
	}
	return nil
}

// Revoke marks the token id as revoked.
//
// Unknown ids are a no-op (the key either expired or was never recorded).
// HSETNX keeps the FIRST revocation timestamp if Revoke races with itself.
func (registry *RedisSessionRegistry) Revoke(ctx context.Context, tokenID string) error {
	key := sessionKey(tokenID)

	exists, err := registry.client.Exists(ctx, key).Result()
	if err != nil {
		return registryErr("revoke", err)
	}
	if exists == 0 {
		return nil
	}

	if err := registry.client.HSetNX(ctx, key, fieldRevokedAt, time.Now().UnixMilli()).Err(); err != nil {
		return registryErr("revoke", err)
	}

	// The hash can expire between the existence check and the write, in
	// which case HSETNX has just recreated it with no TTL. The token is
	// already past its natural expiry then, so drop the stray key rather
	// than leaving it to live forever.
	ttl, err := registry.client.TTL(ctx, key).Result()
	if err != nil {
		return registryErr("revoke", err)
	}
	if ttl < 0 {
		if err := registry.client.Del(ctx, key).Err(); err != nil {
			return registryErr("revoke", err)
		}
	}
	return nil
}

// IsRevoked reports whether the token id carries the revoked mark.
// A missing key (expired or never recorded) reads as not revoked.
func (registry *RedisSessionRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	revoked, err := registry.client.HExists(ctx, sessionKey(tokenID), fieldRevokedAt).Result()
	if err != nil {
		return false, registryErr("is_revoked", err)
	}
	return revoked, nil
}

// ListActiveSessions returns the principal's live sessions, newest first.
//
// Expired entries discovered along the way are pruned from the index.
func (registry *RedisSessionRegistry) ListActiveSessions(ctx context.Context, principalID string) ([]*SessionRecord, error) {
	indexKey := principalIndexKey(principalID)

	tokenIDs, err := registry.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, registryErr("list", err)
	}

	records := make([]*SessionRecord, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		fields, err := registry.client.HGetAll(ctx, sessionKey(tokenID)).Result()
		if err != nil {
			return nil, registryErr("list", err)
		}
		if len(fields) == 0 {
			// Session hash expired; drop the dangling index entry.
			_ = registry.client.ZRem(ctx, indexKey, tokenID).Err()
			continue
		}

		record := recordFromFields(tokenID, fields)
		if record.Revoked() {
			continue
		}
		records = append(records, record)
	}

	// ZREVRANGE already yields newest-first; re-sort defensively in case of
	// equal scores so the issued-at descending contract always holds.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})

	return records, nil
}

// RevokeAllForPrincipal revokes every live session of the principal.
func (registry *RedisSessionRegistry) RevokeAllForPrincipal(ctx context.Context, principalID string) error {
	tokenIDs, err := registry.client.ZRange(ctx, principalIndexKey(principalID), 0, -1).Result()
	if err != nil {
		return registryErr("revoke_all", err)
	}

	for _, tokenID := range tokenIDs {
		if err := registry.Revoke(ctx, tokenID); err != nil {
			return err
		}
	}
	return nil
}

// recordFromFields rebuilds a [SessionRecord] from its Redis hash fields.
func recordFromFields(tokenID string, fields map[string]string) *SessionRecord {
	record := &SessionRecord{
		TokenID:     tokenID,
		PrincipalID: fields[fieldPrincipal],
		IssuedAt:    millisField(fields, fieldIssuedAt),
		ExpiresAt:   millisField(fields, fieldExpiresAt),
		IPAddress:   fields[fieldIP],
		UserAgent:   fields[fieldUserAgent],
	}
	if _, ok := fields[fieldRevokedAt]; ok {
		revokedAt := millisField(fields, fieldRevokedAt)
		record.RevokedAt = &revokedAt
	}
	return record
}

func millisField(fields map[string]string, name string) time.Time {
	millis, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

var _ SessionRegistry = (*RedisSessionRegistry)(nil)
var _ authz.SessionRegistry = (*RedisSessionRegistry)(nil)
