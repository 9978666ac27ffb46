package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

type subscriptionTicket struct {
	Ticket string `json:"ticket"`
}

type subscriptionType struct {
	Type  string   `json:"type"`
	Codes []string `json:"codes"`
}

// BuildTickerSubscription builds the websocket request subscribing to ticker
// updates of markets
func BuildTickerSubscription(ticket string, markets []string) ([]byte, error) {
	codes := make([]string, len(markets))
	copy(codes, markets)
	return json.Marshal([]interface{}{
		subscriptionTicket{Ticket: ticket},
		subscriptionType{Type: "ticker", Codes: codes},
	})
}

// UpbitStreamer streams ticker trade prices over the Upbit websocket
type UpbitStreamer struct {
	config WebSocketConfig

	mu     sync.Mutex
	client *WebSocketClient
}

var _ PriceStreamer = (*UpbitStreamer)(nil)

// NewUpbitStreamer creates a streamer for the given websocket configuration
func NewUpbitStreamer(config WebSocketConfig) *UpbitStreamer {
	return &UpbitStreamer{config: config}
}

// Stream subscribes to markets. Any previous subscription is closed first.
// The returned channel is closed when ctx is done or Close is called.
func (s *UpbitStreamer) Stream(ctx context.Context, markets []string) (<-chan models.PriceUpdate, error) {
	if len(markets) == 0 {
		return nil, fmt.Errorf("stream: %w", ErrInvalidSymbol)
	}

	payload, err := BuildTickerSubscription(uuid.NewString(), markets)
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription: %w", err)
	}

	client := NewWebSocketClient(s.config)
	client.SetSubscription(payload)

	s.mu.Lock()
	previous := s.client
	s.client = client
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	if err := client.Connect(); err != nil {
		return nil, err
	}

	out := make(chan models.PriceUpdate, 64)
	go s.forward(ctx, client, out)

	logger.Info("Subscribed to price stream", logger.Int("markets", len(markets)))
	return out, nil
}

func (s *UpbitStreamer) forward(ctx context.Context, client *WebSocketClient, out chan<- models.PriceUpdate) {
	defer close(out)
	defer func() {
		s.mu.Lock()
		if s.client == client {
			s.client = nil
		}
		s.mu.Unlock()
		client.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.ctx.Done():
			return
		case raw := <-client.Messages():
			update, ok, err := NormalizeStreamMessage(raw)
			if err != nil {
				logger.Debug("Dropping stream message", logger.ErrorField(err))
				continue
			}
			if !ok {
				continue
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close stops the active subscription, if any
func (s *UpbitStreamer) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}
