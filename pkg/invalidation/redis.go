package invalidation

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRelay extends a LocalBus across console instances through a Redis
// pub/sub channel. Events published here are delivered locally right away
// and relayed; events relayed by other instances are delivered locally by
// Run.
type RedisRelay struct {
	local   *LocalBus
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func NewRedisRelay(local *LocalBus, client *redis.Client, channel string, log *logrus.Logger) *RedisRelay {
	return &RedisRelay{local: local, client: client, channel: channel, log: log}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return redis.NewClient(opts), nil
}

func (r *RedisRelay) Publish(ctx context.Context, e Event) {
	if e.Origin == "" {
		e.Origin = r.local.Origin()
	}
	r.local.Publish(ctx, e)

	payload, err := json.Marshal(e)
	if err != nil {
		r.log.WithError(err).Error("invalidation: marshal event")
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.WithError(err).WithField("module", e.Module).Warn("invalidation: relay publish failed")
	}
}

func (r *RedisRelay) Subscribe(fn func(Event)) func() {
	return r.local.Subscribe(fn)
}

// Run consumes the channel until ctx is done. Messages from this instance
// are skipped since they were delivered locally on Publish.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "subscribe invalidation channel")
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, payload string) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		r.log.WithError(err).Warn("invalidation: malformed relay message")
		return
	}
	if e.Origin == r.local.Origin() {
		return
	}
	r.local.Publish(ctx, e)
}
