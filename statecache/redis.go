package statecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"swarmcore/swarm"
)

// Cache is the key/value mirror the Manager writes through to.
type Cache interface {
	SetRobot(ctx context.Context, e *RobotEntry) error
	GetRobot(ctx context.Context, id swarm.RobotID) (*RobotEntry, error)
	SetLocation(ctx context.Context, e *LocationEntry) error
	GetLocation(ctx context.Context, id swarm.LocationID) (*LocationEntry, error)
	SetGlobalDepth(ctx context.Context, n int) error
	GetGlobalDepth(ctx context.Context) (int, error)
	RobotIDs(ctx context.Context) ([]swarm.RobotID, error)
	FlushAll(ctx context.Context) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func robotKey(id swarm.RobotID) string {
	return fmt.Sprintf("swarmcore:robot:%d", id)
}

func locationKey(id swarm.LocationID) string {
	return fmt.Sprintf("swarmcore:location:%d", id)
}

const (
	allRobotsKey    = "swarmcore:robots"
	allLocationsKey = "swarmcore:locations"
	globalDepthKey  = "swarmcore:global:depth"
)

func (r *RedisStore) SetRobot(ctx context.Context, e *RobotEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, robotKey(e.ID), data, 0)
	pipe.SAdd(ctx, allRobotsKey, uint32(e.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetRobot(ctx context.Context, id swarm.RobotID) (*RobotEntry, error) {
	data, err := r.client.Get(ctx, robotKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e RobotEntry
	return &e, json.Unmarshal(data, &e)
}

func (r *RedisStore) SetLocation(ctx context.Context, e *LocationEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, locationKey(e.ID), data, 0)
	pipe.SAdd(ctx, allLocationsKey, uint32(e.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetLocation(ctx context.Context, id swarm.LocationID) (*LocationEntry, error) {
	data, err := r.client.Get(ctx, locationKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e LocationEntry
	return &e, json.Unmarshal(data, &e)
}

func (r *RedisStore) SetGlobalDepth(ctx context.Context, n int) error {
	return r.client.Set(ctx, globalDepthKey, n, 0).Err()
}

func (r *RedisStore) GetGlobalDepth(ctx context.Context) (int, error) {
	val, err := r.client.Get(ctx, globalDepthKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (r *RedisStore) RobotIDs(ctx context.Context) ([]swarm.RobotID, error) {
	members, err := r.client.SMembers(ctx, allRobotsKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]swarm.RobotID, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, swarm.RobotID(id))
	}
	return ids, nil
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	keys := []string{allRobotsKey, allLocationsKey, globalDepthKey}
	robots, err := r.client.SMembers(ctx, allRobotsKey).Result()
	if err != nil {
		return err
	}
	for _, m := range robots {
		keys = append(keys, "swarmcore:robot:"+m)
	}
	locations, err := r.client.SMembers(ctx, allLocationsKey).Result()
	if err != nil {
		return err
	}
	for _, m := range locations {
		keys = append(keys, "swarmcore:location:"+m)
	}
	return r.client.Del(ctx, keys...).Err()
}
