package moderation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	redisTrue = "1"

	claimKeyPrefix = "claimed"
	claimKeyDelim  = "__"
)

var redisCtx = context.Background()

// ClaimStatusStore mirrors the "is this post claimed" bit into redis so list
// views can annotate many posts without one claim query each. It is a pure
// read optimization: the claims table stays authoritative and every write
// here is best-effort.
type ClaimStatusStore struct {
	inner *redis.Client
}

func GetClaimStatusStore() (*ClaimStatusStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(redisCtx).Result(); err != nil {
		return nil, err
	}
	return &ClaimStatusStore{inner: client}, nil
}

func claimKey(postID string) (string, error) {
	if strings.Contains(postID, claimKeyDelim) {
		return "", fmt.Errorf("invalid post id: %s", postID)
	}
	return claimKeyPrefix + claimKeyDelim + postID, nil
}

func (s *ClaimStatusStore) SetClaimed(postID string, claimed bool) error {
	key, err := claimKey(postID)
	if err != nil {
		return err
	}
	if claimed {
		return s.inner.Set(redisCtx, key, redisTrue, ClaimTimeout).Err()
	}
	return s.inner.Del(redisCtx, key).Err()
}

// GetClaimedStatuses returns one bool per post id, in order.
func (s *ClaimStatusStore) GetClaimedStatuses(postIDs []string) ([]bool, error) {
	if len(postIDs) == 0 {
		return []bool{}, nil
	}

	keys := make([]string, 0, len(postIDs))
	for _, pid := range postIDs {
		key, err := claimKey(pid)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	res, err := s.inner.MGet(redisCtx, keys...).Result()
	if err != nil {
		return nil, err
	}
	statuses := make([]bool, 0, len(res))
	for _, v := range res {
		statuses = append(statuses, v == redisTrue)
	}
	return statuses, nil
}
