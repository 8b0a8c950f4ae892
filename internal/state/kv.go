package state

import "sync"

// KV is the durable key-value store consumed by the persistence layer.
// Values survive process restarts in the SQLite implementation; MemKV is
// the in-memory variant for tests.
type KV interface {
	// Get returns the value for key; the second return is false when the
	// key is absent.
	Get(key string) ([]byte, bool, error)
	// Set stores the value under key, replacing any previous value.
	Set(key string, value []byte) error
}

// Pair is one key/value write.
type Pair struct {
	Key   string
	Value []byte
}

// MultiKV is implemented by stores that can write several keys as one
// atomic unit. Persist uses it so the dual durable keys cannot diverge
// when the process dies mid-write.
type MultiKV interface {
	SetMulti(pairs []Pair) error
}

// MemKV is a process-local KV for tests and dry runs.
type MemKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *MemKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemKV) SetMulti(pairs []Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pairs {
		cp := make([]byte, len(p.Value))
		copy(cp, p.Value)
		m.data[p.Key] = cp
	}
	return nil
}
