package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

var (
	// ErrWebSocketNotConnected is returned when operations are attempted on a disconnected WebSocket
	ErrWebSocketNotConnected = errors.New("websocket is not connected")
	// ErrWebSocketAlreadyConnected is returned when attempting to connect an already connected WebSocket
	ErrWebSocketAlreadyConnected = errors.New("websocket is already connected")
)

// WebSocketState represents the connection state
type WebSocketState int

const (
	StateDisconnected WebSocketState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s WebSocketState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// WebSocketConfig holds configuration for WebSocket connections
type WebSocketConfig struct {
	URL                  string
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration
	PingPeriod           time.Duration
	MaxReconnectAttempts int // 0 means unlimited
}

// DefaultWebSocketConfig returns a default WebSocket configuration
func DefaultWebSocketConfig(url string) WebSocketConfig {
	return WebSocketConfig{
		URL:                  url,
		ReconnectDelay:       1 * time.Second,
		MaxReconnectDelay:    30 * time.Second,
		ReadTimeout:          120 * time.Second,
		WriteTimeout:         10 * time.Second,
		PingPeriod:           60 * time.Second,
		MaxReconnectAttempts: 0,
	}
}

// WebSocketClient is a WebSocket client with automatic reconnection. The
// subscription payload is re-sent after every (re)connect since the exchange
// forgets subscriptions with the connection.
type WebSocketClient struct {
	config            WebSocketConfig
	conn              *websocket.Conn
	state             WebSocketState
	mu                sync.RWMutex
	writeMu           sync.Mutex
	reconnectAttempts int
	lastError         error
	subscription      []byte

	messageChan chan []byte
	closeChan   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebSocketClient creates a new WebSocket client
func NewWebSocketClient(config WebSocketConfig) *WebSocketClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketClient{
		config:      config,
		state:       StateDisconnected,
		messageChan: make(chan []byte, 256),
		closeChan:   make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetSubscription sets the message sent right after each connect
func (w *WebSocketClient) SetSubscription(payload []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscription = payload
}

// Connect establishes a WebSocket connection with automatic reconnection
func (w *WebSocketClient) Connect() error {
	w.mu.Lock()
	if w.state == StateConnected || w.state == StateConnecting {
		w.mu.Unlock()
		return ErrWebSocketAlreadyConnected
	}
	w.state = StateConnecting
	w.mu.Unlock()

	w.wg.Add(1)
	go w.connectLoop()

	return nil
}

// connectLoop handles connection and reconnection logic
func (w *WebSocketClient) connectLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		err := w.attemptConnection()
		if err == nil {
			w.mu.RLock()
			closeChan := w.closeChan
			w.mu.RUnlock()

			w.wg.Add(2)
			go w.readPump()
			go w.writePump()

			select {
			case <-closeChan:
			case <-w.ctx.Done():
				return
			}
		} else {
			w.mu.Lock()
			w.lastError = err
			w.mu.Unlock()
			logger.Warn("WebSocket connection failed", logger.ErrorField(err))
		}

		w.mu.RLock()
		attempts := w.reconnectAttempts
		maxAttempts := w.config.MaxReconnectAttempts
		w.mu.RUnlock()

		if maxAttempts > 0 && attempts >= maxAttempts {
			logger.Error("Max reconnection attempts reached, stopping",
				logger.Int("attempts", attempts),
				logger.Int("max", maxAttempts),
			)
			return
		}

		delay := w.calculateBackoff()

		logger.Info("Reconnecting WebSocket",
			logger.String("url", w.config.URL),
			logger.Duration("delay", delay),
			logger.Int("attempt", attempts+1),
		)

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(delay):
			w.mu.Lock()
			w.state = StateReconnecting
			w.reconnectAttempts++
			w.mu.Unlock()
		}
	}
}

// attemptConnection dials and sends the subscription
func (w *WebSocketClient) attemptConnection() error {
	w.mu.Lock()
	w.state = StateConnecting
	subscription := w.subscription
	w.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(w.ctx, w.config.URL, nil)
	if err != nil {
		w.mu.Lock()
		w.state = StateDisconnected
		w.mu.Unlock()
		return fmt.Errorf("failed to dial WebSocket: %w", err)
	}

	if len(subscription) > 0 {
		conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, subscription); err != nil {
			conn.Close()
			w.mu.Lock()
			w.state = StateDisconnected
			w.mu.Unlock()
			return fmt.Errorf("failed to send subscription: %w", err)
		}
	}

	w.mu.Lock()
	w.conn = conn
	w.state = StateConnected
	w.reconnectAttempts = 0
	w.lastError = nil
	w.closeChan = make(chan struct{})
	w.mu.Unlock()

	logger.Info("WebSocket connected", logger.String("url", w.config.URL))
	return nil
}

// calculateBackoff calculates exponential backoff delay
func (w *WebSocketClient) calculateBackoff() time.Duration {
	w.mu.RLock()
	attempts := w.reconnectAttempts
	baseDelay := w.config.ReconnectDelay
	maxDelay := w.config.MaxReconnectDelay
	w.mu.RUnlock()

	if attempts > 16 {
		attempts = 16
	}
	delay := baseDelay * time.Duration(1<<uint(attempts))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// readPump handles reading messages from the WebSocket
func (w *WebSocketClient) readPump() {
	defer w.wg.Done()

	for {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", logger.ErrorField(err))
			}
			w.closeConnection(err)
			return
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case w.messageChan <- message:
		case <-w.ctx.Done():
			return
		default:
			logger.Warn("Message channel full, dropping message")
		}
	}
}

// writePump keeps the connection alive with pings
func (w *WebSocketClient) writePump() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PingPeriod)
	defer ticker.Stop()

	w.mu.RLock()
	closeChan := w.closeChan
	w.mu.RUnlock()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-closeChan:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()

			if conn == nil {
				return
			}

			w.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(w.config.WriteTimeout))
			w.writeMu.Unlock()
			if err != nil {
				logger.Warn("Failed to send ping", logger.ErrorField(err))
				w.closeConnection(err)
				return
			}
		}
	}
}

// Messages returns the channel of received messages
func (w *WebSocketClient) Messages() <-chan []byte {
	return w.messageChan
}

// GetState returns the current connection state
func (w *WebSocketClient) GetState() WebSocketState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// IsConnected returns whether the WebSocket is connected
func (w *WebSocketClient) IsConnected() bool {
	return w.GetState() == StateConnected
}

// GetLastError returns the last error that occurred
func (w *WebSocketClient) GetLastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// closeConnection closes the current connection and wakes connectLoop
func (w *WebSocketClient) closeConnection(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return
	}
	w.conn.Close()
	w.conn = nil
	w.state = StateDisconnected
	w.lastError = err
	close(w.closeChan)
}

// Close closes the WebSocket connection and stops reconnection attempts
func (w *WebSocketClient) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.state = StateDisconnected
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}
