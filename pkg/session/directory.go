package session

import (
	"context"
	"sync"

	"github.com/example/dinein/pkg/models"
)

// Directory is a console's snapshot of the table list.
type Directory struct {
	mu     sync.RWMutex
	tables map[string]models.Table
}

func NewDirectory() *Directory {
	return &Directory{tables: map[string]models.Table{}}
}

// Refresh replaces the snapshot with the current table list.
func (d *Directory) Refresh(ctx context.Context, m *Manager) error {
	tables, err := m.Tables(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]models.Table, len(tables))
	for _, t := range tables {
		next[t.ID] = t
	}
	d.mu.Lock()
	d.tables = next
	d.mu.Unlock()
	return nil
}

func (d *Directory) TableName(tableID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[tableID]
	if !ok {
		return "", false
	}
	return t.Name(), true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tables)
}
