package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:5433/f1sr", "db.local:5433"},
		{"default port", "postgresql://user:pw@db.local/f1sr", "db.local:5432"},
		{"postgres scheme", "postgres://db.local/f1sr?sslmode=disable", "db.local:5432"},
		{"no path", "postgresql://user@localhost:5432", "localhost:5432"},
		{"other scheme", "mysql://user@localhost/db", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "nats://nats.local:4223", "nats.local:4223"},
		{"default port", "nats://nats.local", "nats.local:4222"},
		{"credentials", "nats://user:pw@127.0.0.1:4222", "127.0.0.1:4222"},
		{"cluster", "nats://a.local:4222,nats://b.local:4222", "a.local:4222"},
		{"invalid", "http://nats.local", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromNatsURL(tt.url))
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	require.NoError(t, WaitForTCP(context.Background(), addr, time.Second))

	ln.Close()
	err = WaitForTCP(context.Background(), addr, 300*time.Millisecond)
	assert.ErrorContains(t, err, "could not be reached")
}
