package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisrv "ChatWave/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence mirror. The in-process registry stays authoritative for routing;
// these keys give out-of-process callers (the HTTP layer) a cheap online
// check without a gateway round trip.

// presence key: im:presence:<user>
// value: gateway id, TTL bounds staleness after a crash
func presenceKey(user string) string { return "im:presence:" + user }

// lastseen key: im:lastseen:<user>, unix millis, no TTL
func lastSeenKey(user string) string { return "im:lastseen:" + user }

// PresenceOnline marks the user online and renews the TTL.
func PresenceOnline(ctx context.Context, user, gatewayID string, ttl time.Duration) error {
	rdb := redisrv.GetClient()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline removes the presence key and records last-seen.
func PresenceOffline(ctx context.Context, user string, at time.Time) error {
	rdb := redisrv.GetClient()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := rdb.Del(ctx, presenceKey(user)).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, lastSeenKey(user), at.UnixMilli(), 0).Err()
}

// PresenceLookup reports whether the user is online and on which gateway.
func PresenceLookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	rdb := redisrv.GetClient()
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// LastSeen returns the recorded offline timestamp, zero when never recorded.
func LastSeen(ctx context.Context, user string) (time.Time, error) {
	rdb := redisrv.GetClient()
	if rdb == nil {
		return time.Time{}, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, lastSeenKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
