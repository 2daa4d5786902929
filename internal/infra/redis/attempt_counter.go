package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter serializes attempt numbering per (quiz, learner) through
// Redis INCR. Two tabs racing the same "start quiz" click each get a
// distinct attempt number; whichever draws a number past the quiz's limit
// is rejected and gives its claim back with DECR. This holds across service
// instances, which an in-process mutex cannot.
type AttemptCounter struct {
	client *redis.Client
}

func NewAttemptCounter(client *redis.Client) *AttemptCounter {
	return &AttemptCounter{client: client}
}

func (c *AttemptCounter) Reserve(ctx context.Context, quizID, learnerID string) (int, error) {
	n, err := c.client.Incr(ctx, c.key(quizID, learnerID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *AttemptCounter) Release(ctx context.Context, quizID, learnerID string) error {
	key := c.key(quizID, learnerID)
	n, err := c.client.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	// Keep the counter from drifting negative on spurious releases.
	if n < 0 {
		return c.client.Set(ctx, key, 0, 0).Err()
	}
	return nil
}

func (c *AttemptCounter) key(quizID, learnerID string) string {
	return "quiz:" + quizID + ":attempts:" + learnerID
}
