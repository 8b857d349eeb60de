package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MinDescriptionLength = 10
	MaxDescriptionLength = 5000
	MaxLocationLength    = 300
	MaxGenderLength      = 30
	MaxPhoneLength       = 20
	MaxAge               = 130
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
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
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

// ValidateAge проверяет возраст пропавшего человека.
func ValidateAge(age int) error {
	if age < 0 {
		return fmt.Errorf("возраст не может быть отрицательным")
	}
	if age > MaxAge {
		return fmt.Errorf("возраст не может превышать %d", MaxAge)
	}
	return nil
}

// ValidateCoordinates проверяет диапазоны широты и долготы.
// Порядок аргументов намеренно lat, lng — это вход от клиента,
// а не GeoJSON массив.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("широта должна быть в диапазоне от -90 до 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("долгота должна быть в диапазоне от -180 до 180")
	}
	return nil
}

// ValidateDistanceKm проверяет радиус поиска в километрах.
func ValidateDistanceKm(distance float64) error {
	if distance <= 0 {
		return fmt.Errorf("радиус поиска должен быть положительным")
	}
	if distance > 20000 {
		return fmt.Errorf("радиус поиска слишком большой")
	}
	return nil
}
