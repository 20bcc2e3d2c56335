// Package audit keeps the operator action log: one row per mutation made
// through the dashboard, with the entity state before and after as JSON.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"foodcourt-dashboard/internal/models"

	"gorm.io/gorm"
)

type Entry struct {
	KiosID      *uint
	Actor       models.User
	EntityType  string
	EntityID    uint
	Action      models.ActionType
	Description string
	Before      any
	After       any
	RequestID   string
}

type Query struct {
	KiosID     *uint
	UserID     uint
	EntityType string
	EntityID   uint
	Limit      int
	Offset     int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type Lister interface {
	List(ctx context.Context, q Query) ([]models.ActionLog, int64, error)
}

type Log interface {
	Recorder
	Lister
}

// toRow renders before/after as JSON; jsonb columns get the literal null
// rather than an empty string.
func toRow(e Entry) models.ActionLog {
	beforeStr := "null"
	afterStr := "null"
	if e.Before != nil {
		if b, err := json.Marshal(e.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if e.After != nil {
		if b, err := json.Marshal(e.After); err == nil {
			afterStr = string(b)
		}
	}
	return models.ActionLog{
		KiosID:      e.KiosID,
		UserID:      e.Actor.ID,
		UserName:    e.Actor.DisplayName(),
		UserRole:    e.Actor.Role,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		RequestID:   e.RequestID,
	}
}

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	}
	return q.Limit
}

// Store persists the log with gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	row := toRow(e)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("audit: record %s %s#%d: %w", e.Action, e.EntityType, e.EntityID, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, q Query) ([]models.ActionLog, int64, error) {
	dbq := s.db.WithContext(ctx).Model(&models.ActionLog{})
	if q.KiosID != nil {
		dbq = dbq.Where("kios_id = ?", *q.KiosID)
	}
	if q.UserID > 0 {
		dbq = dbq.Where("user_id = ?", q.UserID)
	}
	if q.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID > 0 {
		dbq = dbq.Where("entity_id = ?", q.EntityID)
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}
	logs := []models.ActionLog{}
	err := dbq.Order("created_at DESC").Order("id DESC").Limit(q.limit()).Offset(q.Offset).Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	return logs, total, nil
}

// Memory keeps the newest entries in process. It backs the activity view
// when no database is configured.
type Memory struct {
	mu     sync.Mutex
	rows   []models.ActionLog
	nextID uint
	cap    int
	now    func() time.Time
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = MaxLimit
	}
	return &Memory{cap: capacity, now: time.Now}
}

func (m *Memory) Record(ctx context.Context, e Entry) error {
	row := toRow(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	row.ID = m.nextID
	row.CreatedAt = m.now()
	m.rows = append(m.rows, row)
	if len(m.rows) > m.cap {
		m.rows = m.rows[len(m.rows)-m.cap:]
	}
	return nil
}

func (m *Memory) List(ctx context.Context, q Query) ([]models.ActionLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []models.ActionLog{}
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if q.KiosID != nil && (r.KiosID == nil || *r.KiosID != *q.KiosID) {
			continue
		}
		if q.UserID > 0 && r.UserID != q.UserID {
			continue
		}
		if q.EntityType != "" && r.EntityType != q.EntityType {
			continue
		}
		if q.EntityID > 0 && r.EntityID != q.EntityID {
			continue
		}
		matched = append(matched, r)
	}

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []models.ActionLog{}, total, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > q.limit() {
		matched = matched[:q.limit()]
	}
	return matched, total, nil
}

// Nop drops every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) List(context.Context, Query) ([]models.ActionLog, int64, error) {
	return []models.ActionLog{}, 0, nil
}
