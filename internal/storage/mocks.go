package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MockRedisClient is an in-memory implementation of RedisClient for testing
type MockRedisClient struct {
	mu sync.Mutex

	Data       map[string]string
	TTLs       map[string]time.Duration
	SortedSets map[string][]ScoredMember
	Published  []PubSubMessage
	PubSubData []PubSubMessage

	PublishErr   error
	GetErr       error
	SetErr       error
	SubscribeErr error
	PingErr      error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		Data:       make(map[string]string),
		TTLs:       make(map[string]time.Duration),
		SortedSets: make(map[string][]ScoredMember),
	}
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	// Marshal to JSON like the real implementation
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Data[key] = string(jsonData)
	m.TTLs[key] = ttl
	return nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	value, exists := m.Data[key]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MockRedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	value, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), dest)
}

func (m *MockRedisClient) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.Data, key)
		delete(m.SortedSets, key)
	}
	return nil
}

func (m *MockRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.Data[key]
	return exists, nil
}

func (m *MockRedisClient) ReplaceSortedSet(ctx context.Context, key string, members []ScoredMember, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.SortedSets[key] = append([]ScoredMember(nil), members...)
	m.TTLs[key] = ttl
	return nil
}

func (m *MockRedisClient) RangeByScoreDesc(ctx context.Context, key string, limit int64) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	members := append([]ScoredMember(nil), m.SortedSets[key]...)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Score > members[j].Score
	})
	if limit > 0 && int64(len(members)) > limit {
		members = members[:limit]
	}
	return members, nil
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	jsonData, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.Published = append(m.Published, PubSubMessage{Channel: channel, Message: string(jsonData)})
	return nil
}

// Subscribe replays PubSubData and closes the channel once ctx is done
func (m *MockRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan PubSubMessage, error) {
	m.mu.Lock()
	if m.SubscribeErr != nil {
		m.mu.Unlock()
		return nil, m.SubscribeErr
	}
	replay := append([]PubSubMessage(nil), m.PubSubData...)
	m.mu.Unlock()

	ch := make(chan PubSubMessage, len(replay))
	for _, msg := range replay {
		ch <- msg
	}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (m *MockRedisClient) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockRedisClient) Close() error {
	return nil
}
