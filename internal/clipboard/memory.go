package clipboard

import "sync"

// Memory is a process-local pasteboard. It backs platforms without a system
// pasteboard bridge and doubles as a test fake.
type Memory struct {
	mu    sync.Mutex
	snap  Snapshot
	count int
}

// NewMemory returns an empty in-memory pasteboard.
func NewMemory() *Memory {
	return &Memory{}
}

// ChangeCount returns the number of writes so far.
func (m *Memory) ChangeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *Memory) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.clone(), nil
}

func (m *Memory) Restore(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s.clone()
	m.count++
	return nil
}

func (m *Memory) ReadString() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.snap.Items {
		for _, e := range item {
			if e.Type == TypeString {
				return string(e.Data), true
			}
		}
	}
	return "", false
}

func (m *Memory) WriteString(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{Items: []Item{{{Type: TypeString, Data: []byte(text)}}}}
	m.count++
	return nil
}
