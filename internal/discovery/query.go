// Package discovery строит поисковые запросы по возможностям и защищает
// видимый результат от устаревших ответов при быстром вводе.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ignatzorin/career-compass/internal/models"
)

// Имена фильтров.
const (
	FilterFormat     = "format"
	FilterDuration   = "duration"
	FilterDepartment = "department"
)

// KnownFilters фильтры, которые понимает поиск.
var KnownFilters = []string{FilterFormat, FilterDuration, FilterDepartment}

// Fetcher выполняет поиск возможностей в хранилище.
type Fetcher interface {
	Search(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error)
}

// Query ввод пользователя: свободный текст и выбранные значения фильтров.
// Пустое значение фильтра означает отсутствие ограничения.
type Query struct {
	Text    string
	Filters map[string]string
}

// WithFilter возвращает копию запроса с заданным фильтром.
func (q Query) WithFilter(name, value string) Query {
	filters := make(map[string]string, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters[name] = value
	return Query{Text: q.Text, Filters: filters}
}

// Filter переводит запрос в условия выборки.
func (q Query) Filter() models.OpportunityFilter {
	return models.OpportunityFilter{
		Search:     strings.TrimSpace(q.Text),
		Format:     strings.TrimSpace(q.Filters[FilterFormat]),
		Duration:   strings.TrimSpace(q.Filters[FilterDuration]),
		Department: strings.TrimSpace(q.Filters[FilterDepartment]),
	}
}

// Key нормализованный ключ запроса для кэша.
func (q Query) Key() string {
	return FilterKey(q.Filter())
}

// FilterKey нормализованный ключ условий выборки.
func FilterKey(f models.OpportunityFilter) string {
	parts := []string{
		"q=" + strings.ToLower(strings.TrimSpace(f.Search)),
		"format=" + f.Format,
		"duration=" + f.Duration,
		"department=" + f.Department,
	}
	if f.HostID != nil {
		parts = append(parts, "host="+f.HostID.String())
	}
	for _, id := range f.IDs {
		parts = append(parts, "id="+id.String())
	}
	return strings.Join(parts, "&")
}

// Validate проверяет имена фильтров и значения перечислений.
func (q Query) Validate() error {
	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := strings.TrimSpace(q.Filters[name])
		switch name {
		case FilterFormat:
			if value != "" {
				if _, ok := models.ValidFormats[value]; !ok {
					return fmt.Errorf("неизвестный формат %q", value)
				}
			}
		case FilterDuration:
			if value != "" {
				if _, ok := models.ValidDurations[value]; !ok {
					return fmt.Errorf("неизвестная длительность %q", value)
				}
			}
		case FilterDepartment:
		default:
			return fmt.Errorf("неизвестный фильтр %q", name)
		}
	}
	return nil
}
