package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/calendariko/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
)

// ServiceBusClient is an interface for Azure Service Bus operations
type ServiceBusClient interface {
	SendMessage(ctx context.Context, body interface{}, sessionID string) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// mockServiceBusClient is a no-op implementation for local development,
// used when no connection string is configured
type mockServiceBusClient struct{}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.ServiceBusConfig) (ServiceBusClient, error) {
	if cfg.ConnectionString == "" {
		return &mockServiceBusClient{}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusClient{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// sessionKey returns the explicit session id, or a fresh one if none is
// provided
func sessionKey(sessionID string) string {
	if sessionID == "" {
		return uuid.NewString()
	}
	return sessionID
}

// SendMessage sends a message to the Service Bus queue
func (s *serviceBusClient) SendMessage(ctx context.Context, body interface{}, sessionID string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	sessionID = sessionKey(sessionID)

	msg := &azservicebus.Message{
		Body:      data,
		SessionID: &sessionID,
	}

	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Close closes the Service Bus connections
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}

// SendMessage on the mock client drops the message
func (m *mockServiceBusClient) SendMessage(ctx context.Context, body interface{}, sessionID string) error {
	return nil
}

// Close on the mock client is a no-op
func (m *mockServiceBusClient) Close() error {
	return nil
}
