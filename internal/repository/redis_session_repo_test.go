package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodcheck/internal/domain"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSessionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	repo := NewRedisSessionRepository(client, time.Hour)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := domain.NewSession("s1", now)
	s.Username = "alice"
	s.State = domain.StateAsking
	s.Messages = append(s.Messages, domain.SystemMessage("Likely Depressed", now))

	require.NoError(t, repo.Create(ctx, s))
	assert.ErrorIs(t, repo.Create(ctx, s), ErrSessionExists)
	assert.True(t, mr.Exists("moodcheck:session:s1"))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, domain.StateAsking, got.State)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, domain.OriginSystem, got.Messages[0].Origin)
	assert.NotNil(t, got.Answers)

	got.Answers = append(got.Answers, domain.Answer{Question: "What is your age?", Text: "34"})
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, got.Answers, again.Answers)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "s1"), domain.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Update(ctx, got), domain.ErrSessionNotFound)
}

func TestRedisSessionRepository_TTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	repo := NewRedisSessionRepository(client, time.Minute)

	require.NoError(t, repo.Create(ctx, domain.NewSession("s1", time.Now())))
	assert.Equal(t, time.Minute, mr.TTL("moodcheck:session:s1"))

	mr.FastForward(2 * time.Minute)
	_, err := repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisSessionRepository_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisSessionRepository(client, time.Minute)
	mr.Close()

	_, err = repo.GetByID(context.Background(), "s1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
