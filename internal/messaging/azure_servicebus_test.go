package messaging

import (
	"context"
	"testing"

	"example.com/calendariko/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSessionKeyKeepsExplicitID(t *testing.T) {
	require.Equal(t, "band-1", sessionKey("band-1"))
}

func TestSessionKeyGeneratesValidID(t *testing.T) {
	id := sessionKey("")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, id, sessionKey(""))
}

func TestNewServiceBusClientFallsBackToMock(t *testing.T) {
	client, err := NewServiceBusClient(config.ServiceBusConfig{})
	require.NoError(t, err)
	require.IsType(t, &mockServiceBusClient{}, client)

	// The mock drops messages instead of failing
	require.NoError(t, client.SendMessage(context.Background(), map[string]string{"k": "v"}, ""))
	require.NoError(t, client.Close())
}
