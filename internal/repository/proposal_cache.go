package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

const proposalKeyPrefix = "proposal:"

// ProposalCache keeps generated proposals in Redis until they are saved,
// exported, or expire.
type ProposalCache struct {
	client *redis.Client
}

// NewProposalCache constructs a ProposalCache.
func NewProposalCache(client *redis.Client) *ProposalCache {
	return &ProposalCache{client: client}
}

// Get retrieves and unmarshals a stored proposal into dest.
func (c *ProposalCache) Get(ctx context.Context, id string, dest interface{}) error {
	if c.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, proposalKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get proposal %s: %w", id, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal proposal %s: %w", id, err)
	}
	return nil
}

// Set marshals and stores a proposal with the given TTL.
func (c *ProposalCache) Set(ctx context.Context, id string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal proposal %s: %w", id, err)
	}

	if err := c.client.Set(ctx, proposalKeyPrefix+id, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set proposal %s: %w", id, err)
	}
	return nil
}

// Delete drops a stored proposal.
func (c *ProposalCache) Delete(ctx context.Context, id string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, proposalKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete proposal %s: %w", id, err)
	}
	return nil
}
