package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Opportunity описывает предложение хоста о стажировке-наблюдении.
// ScheduledAt == nil означает черновик без назначенной даты.
type Opportunity struct {
	ID           uuid.UUID  `db:"id" json:"id" bson:"_id"`
	HostID       uuid.UUID  `db:"host_id" json:"host_id" bson:"host_id"`
	Title        string     `db:"title" json:"title" bson:"title"`
	Description  string     `db:"description" json:"description" bson:"description"`
	Format       string     `db:"format" json:"format" bson:"format"`
	Duration     string     `db:"duration" json:"duration" bson:"duration"`
	ScheduledAt  *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty" bson:"scheduled_at,omitempty"`
	Location     string     `db:"location" json:"location" bson:"location"`
	Department   string     `db:"department" json:"department" bson:"department"`
	Requirements string     `db:"requirements" json:"requirements" bson:"requirements"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

// IsDraft сообщает, что у возможности нет назначенной даты.
func (o Opportunity) IsDraft() bool {
	return o.ScheduledAt == nil
}

// IsUpcoming считает черновики предстоящими.
func (o Opportunity) IsUpcoming(now time.Time) bool {
	return o.ScheduledAt == nil || !o.ScheduledAt.Before(now)
}

// OwnedBy проверяет владельца.
func (o Opportunity) OwnedBy(hostID uuid.UUID) bool {
	return o.HostID == hostID
}

// OpportunityFilter условия выборки возможностей.
// Пустые поля означают отсутствие ограничения.
type OpportunityFilter struct {
	Search     string
	Format     string
	Duration   string
	Department string
	HostID     *uuid.UUID
	// IDs ограничивает выборку перечисленными идентификаторами, если не nil.
	IDs []uuid.UUID
}

// Matches применяет фильтр к одной записи: подстрока без учёта регистра
// в названии или локации, остальные условия на точное совпадение.
func (f OpportunityFilter) Matches(o Opportunity) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.Title), needle) &&
			!strings.Contains(strings.ToLower(o.Location), needle) {
			return false
		}
	}
	if f.Format != "" && o.Format != f.Format {
		return false
	}
	if f.Duration != "" && o.Duration != f.Duration {
		return false
	}
	if f.Department != "" && o.Department != f.Department {
		return false
	}
	if f.HostID != nil && o.HostID != *f.HostID {
		return false
	}
	if f.IDs != nil {
		found := false
		for _, id := range f.IDs {
			if id == o.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// OpportunityPatch частичное обновление возможности.
type OpportunityPatch struct {
	Title         *string
	Description   *string
	Format        *string
	Duration      *string
	ScheduledAt   *time.Time
	ClearSchedule bool
	Location      *string
	Department    *string
	Requirements  *string
}

// Apply переносит заданные поля патча в возможность.
func (p OpportunityPatch) Apply(o *Opportunity) {
	if p.Title != nil {
		o.Title = *p.Title
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.Format != nil {
		o.Format = *p.Format
	}
	if p.Duration != nil {
		o.Duration = *p.Duration
	}
	if p.ClearSchedule {
		o.ScheduledAt = nil
	} else if p.ScheduledAt != nil {
		at := *p.ScheduledAt
		o.ScheduledAt = &at
	}
	if p.Location != nil {
		o.Location = *p.Location
	}
	if p.Department != nil {
		o.Department = *p.Department
	}
	if p.Requirements != nil {
		o.Requirements = *p.Requirements
	}
}

// Вкладки списка возможностей хоста.
const (
	TabAll      = "all"
	TabUpcoming = "upcoming"
	TabPast     = "past"
)

// SplitByDate делит возможности на предстоящие (по возрастанию даты, черновики в конце)
// и прошедшие (по убыванию даты).
func SplitByDate(opps []Opportunity, now time.Time) (upcoming, past []Opportunity) {
	return SplitByDateFunc(opps, func(o Opportunity) Opportunity { return o }, now)
}

// SplitByDateFunc делит произвольные записи по дате связанной возможности.
func SplitByDateFunc[T any](items []T, opp func(T) Opportunity, now time.Time) (upcoming, past []T) {
	for _, item := range items {
		if opp(item).IsUpcoming(now) {
			upcoming = append(upcoming, item)
		} else {
			past = append(past, item)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return scheduleKey(opp(upcoming[i])) < scheduleKey(opp(upcoming[j]))
	})
	sort.SliceStable(past, func(i, j int) bool {
		return scheduleKey(opp(past[i])) > scheduleKey(opp(past[j]))
	})
	return upcoming, past
}

// ByTab возвращает возможности для вкладки хоста. Вкладка "all" упорядочена по дате,
// черновики в конце.
func ByTab(opps []Opportunity, tab string, now time.Time) []Opportunity {
	upcoming, past := SplitByDate(opps, now)
	switch tab {
	case TabUpcoming:
		return upcoming
	case TabPast:
		return past
	default:
		all := append(append([]Opportunity{}, past...), upcoming...)
		sort.SliceStable(all, func(i, j int) bool {
			return scheduleKey(all[i]) < scheduleKey(all[j])
		})
		return all
	}
}

func scheduleKey(o Opportunity) int64 {
	if o.ScheduledAt == nil {
		return 1<<63 - 1
	}
	return o.ScheduledAt.UnixNano()
}

// SortNewestFirst упорядочивает по времени создания, новые первыми.
func SortNewestFirst(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].CreatedAt.After(opps[j].CreatedAt)
	})
}
