package random

import "sync"

// Mock is a scripted Random for tests. Queued results are returned in
// order; once exhausted Intn returns 0 and String falls back to Fallback.
type Mock struct {
	mu sync.Mutex

	intn    []int
	strings []string

	// Fallback, when set, serves String calls after the queue is drained.
	Fallback Random
}

var _ Random = (*Mock)(nil)

// NewMock creates an empty Mock.
func NewMock() *Mock {
	return &Mock{}
}

// QueueIntn adds values to the Intn result queue
func (m *Mock) QueueIntn(values ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intn = append(m.intn, values...)
}

// QueueString adds values to the String result queue
func (m *Mock) QueueString(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings = append(m.strings, values...)
}

func (m *Mock) Intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.intn) == 0 {
		return 0
	}
	v := m.intn[0]
	m.intn = m.intn[1:]
	return v
}

func (m *Mock) String(length int, alphabet string) string {
	m.mu.Lock()
	if len(m.strings) > 0 {
		v := m.strings[0]
		m.strings = m.strings[1:]
		m.mu.Unlock()
		return v
	}
	fallback := m.Fallback
	m.mu.Unlock()
	if fallback != nil {
		return fallback.String(length, alphabet)
	}
	return ""
}
