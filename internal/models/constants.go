package models

// Role константы ролей пользователей
const (
	RoleSeeker = "seeker"
	RoleHost   = "host"
)

// Format константы форматов проведения
const (
	FormatInPerson = "In-person"
	FormatVirtual  = "Virtual"
	FormatHybrid   = "Hybrid"
)

// Duration константы длительности
const (
	DurationHour     = "1 hour"
	DurationHalfDay  = "Half day"
	DurationFullDay  = "Full day"
	DurationMultiDay = "Multi-day"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleSeeker: {},
	RoleHost:   {},
}

// ValidFormats список валидных форматов
var ValidFormats = map[string]struct{}{
	FormatInPerson: {},
	FormatVirtual:  {},
	FormatHybrid:   {},
}

// ValidDurations список валидных длительностей
var ValidDurations = map[string]struct{}{
	DurationHour:     {},
	DurationHalfDay:  {},
	DurationFullDay:  {},
	DurationMultiDay: {},
}

// NormalizeRole приводит роль к одному из валидных значений.
// Старые профили хранят роль "user", она соответствует соискателю.
func NormalizeRole(role string) string {
	if role == RoleHost {
		return RoleHost
	}
	return RoleSeeker
}
