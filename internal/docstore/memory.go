package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// FailureFunc lets tests make a backend operation fail. op is one of
// "create", "get", "query", "update", "delete"; id is empty for create and query.
type FailureFunc func(op, kind, id string) error

type memoryDoc struct {
	id        string
	data      []byte
	createdAt time.Time
	seq       int64
}

// MemoryBackend is an in-process Backend used for local runs and tests
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string]map[string]*memoryDoc
	seq  int64
	last time.Time
	now  func() time.Time
	fail FailureFunc
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs: make(map[string]map[string]*memoryDoc),
		now:  time.Now,
	}
}

// SetFailure installs fn as the failure hook; nil removes it
func (m *MemoryBackend) SetFailure(fn FailureFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

// Count returns the number of stored documents of kind
func (m *MemoryBackend) Count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[kind])
}

func (m *MemoryBackend) check(op, kind, id string) error {
	if m.fail == nil {
		return nil
	}
	return m.fail(op, kind, id)
}

// tick returns a strictly increasing timestamp
func (m *MemoryBackend) tick() time.Time {
	t := m.now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *MemoryBackend) Create(ctx context.Context, kind string, data []byte) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("create", kind, ""); err != nil {
		return Record{}, err
	}

	m.seq++
	doc := &memoryDoc{
		id:        uuid.New().String(),
		data:      append([]byte(nil), data...),
		createdAt: m.tick(),
		seq:       m.seq,
	}
	if m.docs[kind] == nil {
		m.docs[kind] = make(map[string]*memoryDoc)
	}
	m.docs[kind][doc.id] = doc

	return doc.record(), nil
}

func (m *MemoryBackend) Get(ctx context.Context, kind, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("get", kind, id); err != nil {
		return Record{}, err
	}

	doc, ok := m.docs[kind][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return doc.record(), nil
}

func (m *MemoryBackend) Query(ctx context.Context, kind string, preds ...Predicate) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("query", kind, ""); err != nil {
		return nil, err
	}

	var matched []*memoryDoc
	for _, doc := range m.docs[kind] {
		if doc.matches(preds) {
			matched = append(matched, doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	recs := make([]Record, 0, len(matched))
	for _, doc := range matched {
		recs = append(recs, doc.record())
	}
	return recs, nil
}

func (m *MemoryBackend) Update(ctx context.Context, kind, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("update", kind, id); err != nil {
		return err
	}

	doc, ok := m.docs[kind][id]
	if !ok {
		return ErrNotFound
	}

	var merged map[string]any
	if err := json.Unmarshal(doc.data, &merged); err != nil {
		return fmt.Errorf("corrupt document %s/%s: %w", kind, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	doc.data = data
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("delete", kind, id); err != nil {
		return err
	}

	if _, ok := m.docs[kind][id]; !ok {
		return ErrNotFound
	}
	delete(m.docs[kind], id)
	return nil
}

func (m *MemoryBackend) ServerTimestamp(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tick(), nil
}

func (d *memoryDoc) record() Record {
	return Record{
		ID:        d.id,
		Data:      append([]byte(nil), d.data...),
		CreatedAt: d.createdAt,
	}
}

func (d *memoryDoc) matches(preds []Predicate) bool {
	for _, p := range preds {
		if !p.matches(gjson.GetBytes(d.data, p.Field).String()) {
			return false
		}
	}
	return true
}
