package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aidekit/aide/internal/models"
)

// MemoryAlerts is an in-process Alerts gateway used in tests and local
// development.
type MemoryAlerts struct {
	mu     sync.RWMutex
	nextID int64
	alerts map[int64]*models.Alert
}

func NewMemoryAlerts() *MemoryAlerts {
	return &MemoryAlerts{nextID: 1, alerts: make(map[int64]*models.Alert)}
}

func (m *MemoryAlerts) Create(_ context.Context, alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert.ID = m.nextID
	m.nextID++
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	copied := *alert
	m.alerts[alert.ID] = &copied
	return nil
}

func (m *MemoryAlerts) ListPending(_ context.Context, userID int64, filter ListFilter) ([]*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Alert
	for _, a := range m.alerts {
		if a.UserID != userID || a.Sent {
			continue
		}
		if filter.ChannelID != "" && a.ChannelID != filter.ChannelID {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryAlerts) ListDue(_ context.Context, now time.Time) ([]*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Alert
	for _, a := range m.alerts {
		if !a.Sent && !a.Date.After(now) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryAlerts) MostRecentPending(_ context.Context, userID int64) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.Alert
	for _, a := range m.alerts {
		if a.UserID != userID || a.Sent {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) ||
			(a.CreatedAt.Equal(latest.CreatedAt) && a.ID > latest.ID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryAlerts) Reschedule(_ context.Context, id, userID int64, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("alert not found")
	}
	a.Date = to
	a.Sent = false
	return nil
}

func (m *MemoryAlerts) MarkSent(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if a, ok := m.alerts[id]; ok {
			a.Sent = true
		}
	}
	return nil
}

func (m *MemoryAlerts) Delete(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("alert not found")
	}
	delete(m.alerts, id)
	return nil
}

// MemoryTasks is an in-process Tasks gateway.
type MemoryTasks struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]*models.Task
}

func NewMemoryTasks() *MemoryTasks {
	return &MemoryTasks{nextID: 1, tasks: make(map[int64]*models.Task)}
}

func (m *MemoryTasks) Create(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task.ID = m.nextID
	m.nextID++
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *MemoryTasks) List(_ context.Context, userID int64, filter ListFilter) ([]*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Task
	for _, t := range m.tasks {
		if t.UserID != userID || t.Resolved {
			continue
		}
		if filter.ChannelID != "" && t.ChannelID != filter.ChannelID {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryTasks) MarkResolved(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("task not found")
	}
	t.Resolved = true
	return nil
}

func (m *MemoryTasks) Delete(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("task not found")
	}
	delete(m.tasks, id)
	return nil
}

// MemoryNotes is an in-process Notes gateway.
type MemoryNotes struct {
	mu     sync.RWMutex
	nextID int64
	notes  map[int64]*models.Note
}

func NewMemoryNotes() *MemoryNotes {
	return &MemoryNotes{nextID: 1, notes: make(map[int64]*models.Note)}
}

func (m *MemoryNotes) Create(_ context.Context, note *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	note.ID = m.nextID
	m.nextID++
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

func (m *MemoryNotes) List(_ context.Context, userID int64, filter ListFilter) ([]*models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Note
	for _, n := range m.notes {
		if n.UserID != userID {
			continue
		}
		if filter.ChannelID != "" && n.ChannelID != filter.ChannelID {
			continue
		}
		if filter.Tag != "" && !containsTag(n.Tags, filter.Tag) {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryNotes) Search(_ context.Context, userID int64, query string) ([]*models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []*models.Note
	for _, n := range m.notes {
		if n.UserID != userID {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Content), needle) {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryNotes) Delete(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("note not found")
	}
	delete(m.notes, id)
	return nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// MemoryImages is an in-process Images gateway.
type MemoryImages struct {
	mu     sync.RWMutex
	nextID int64
	images map[int64]*models.ImageRecord
}

func NewMemoryImages() *MemoryImages {
	return &MemoryImages{nextID: 1, images: make(map[int64]*models.ImageRecord)}
}

func (m *MemoryImages) Create(_ context.Context, image *models.ImageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	image.ID = m.nextID
	m.nextID++
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}
	copied := *image
	m.images[image.ID] = &copied
	return nil
}

func (m *MemoryImages) List(_ context.Context, userID int64) ([]*models.ImageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.ImageRecord
	for _, img := range m.images {
		if img.UserID != userID {
			continue
		}
		copied := *img
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// MemorySubscriptions is an in-process Subscriptions gateway.
type MemorySubscriptions struct {
	mu   sync.RWMutex
	subs map[int64]*models.PushSubscription
}

func NewMemorySubscriptions() *MemorySubscriptions {
	return &MemorySubscriptions{subs: make(map[int64]*models.PushSubscription)}
}

func (m *MemorySubscriptions) Set(userID int64, sub *models.PushSubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[userID] = sub
}

func (m *MemorySubscriptions) Get(_ context.Context, userID int64) (*models.PushSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[userID]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}
