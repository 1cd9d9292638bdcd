package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/travelstore/config"
)

func TestNewSessionRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewSessionRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewRedisSessionRepository(t *testing.T) {
	client := NewRedisClient(config.RedisConfig{Addr: "localhost:6379"})
	defer client.Close()

	repo := NewRedisSessionRepository(client)
	assert.NotNil(t, repo)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session:client:abc", sessionKey("abc"))
}
