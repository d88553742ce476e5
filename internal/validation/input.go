package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ignatzorin/career-compass/internal/models"
)

// Константы валидации
const (
	MinDisplayNameLength  = 2
	MaxDisplayNameLength  = 100
	MinTitleLength        = 3
	MaxTitleLength        = 200
	MaxDescriptionLength  = 5000
	MaxLocationLength     = 200
	MaxDepartmentLength   = 100
	MaxRequirementsLength = 2000
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	displayNameRegex = regexp.MustCompile(`^[\p{L}0-9\s\-_.,!?()']+$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}
	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}
	return nil
}

// ValidateRole проверяет роль, выбранную при регистрации.
func ValidateRole(role string) error {
	if _, ok := models.ValidRoles[role]; !ok {
		return fmt.Errorf("роль должна быть %q или %q", models.RoleSeeker, models.RoleHost)
	}
	return nil
}

// ValidateOpportunityTitle проверяет название возможности.
func ValidateOpportunityTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("название возможности обязательно")
	}
	return ValidateLength("название возможности", title, MinTitleLength, MaxTitleLength)
}

// ValidateFormat проверяет формат проведения.
func ValidateFormat(format string) error {
	if _, ok := models.ValidFormats[format]; !ok {
		return fmt.Errorf("неизвестный формат %q", format)
	}
	return nil
}

// ValidateDuration проверяет длительность.
func ValidateDuration(duration string) error {
	if _, ok := models.ValidDurations[duration]; !ok {
		return fmt.Errorf("неизвестная длительность %q", duration)
	}
	return nil
}

// ValidateOpportunity проверяет возможность целиком перед записью.
func ValidateOpportunity(opp *models.Opportunity) error {
	if err := ValidateOpportunityTitle(opp.Title); err != nil {
		return err
	}
	if err := ValidateFormat(opp.Format); err != nil {
		return err
	}
	if err := ValidateDuration(opp.Duration); err != nil {
		return err
	}
	if err := ValidateLength("описание", opp.Description, 0, MaxDescriptionLength); err != nil {
		return err
	}
	if err := ValidateLength("местоположение", opp.Location, 0, MaxLocationLength); err != nil {
		return err
	}
	if err := ValidateLength("отдел", opp.Department, 0, MaxDepartmentLength); err != nil {
		return err
	}
	return ValidateLength("требования", opp.Requirements, 0, MaxRequirementsLength)
}

// ParseSchedule разбирает дату проведения в формате RFC 3339. Пустая строка означает черновик.
func ParseSchedule(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("дата должна быть в формате RFC 3339: %w", err)
	}
	return &at, nil
}
