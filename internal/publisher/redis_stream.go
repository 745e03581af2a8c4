package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunStream carries ingest run lifecycle events; the websocket relay tails
// it for connected clients.
const RunStream = "ingest.runs.football_nfl"

// RedisStreamPublisher publishes ingest events to Redis streams.
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher wraps an existing client; the caller owns its
// lifecycle.
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishRunEvent appends a run snapshot to the run stream. Published on
// start and on finish, so consumers see both transitions.
func (rsp *RedisStreamPublisher) PublishRunEvent(ctx context.Context, run interface{}) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: RunStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
