package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/internal/config"
)

func TestNewClient(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + srv.Addr(), DB: 2}, nil)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, 2, client.Options().DB)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{URL: "not a url"}, nil)
	assert.Error(t, err)

	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()
	_, err = NewClient(context.Background(), config.RedisConfig{URL: "redis://" + addr}, nil)
	assert.Error(t, err)
}
