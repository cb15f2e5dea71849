package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewServiceWithoutURL(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	assert.Nil(t, NewService())
}

func TestNewServiceUnreachable(t *testing.T) {
	// nothing listens on port 1
	t.Setenv("REDIS_URL", "127.0.0.1:1")
	assert.Nil(t, NewService())
}

func TestServiceErrorsWhenServerIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	svc := NewServiceWithClient(client)
	defer svc.Close()

	ctx := context.Background()
	assert.Error(t, svc.Ping(ctx))
	assert.Error(t, svc.AppendList(ctx, "k", 10, time.Minute, "v"))
	_, err := svc.ListRange(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, svc.Touch(ctx, "k", time.Minute))
	assert.NoError(t, svc.AppendList(ctx, "k", 10, time.Minute))
}
