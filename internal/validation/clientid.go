// Package validation checks identifiers accepted from users.
package validation

import (
	"fmt"
	"regexp"
)

// ClientIDPattern определяет допустимый формат client id
// Латинские буквы, цифры, '_', '-' и '.'; первый символ буква или цифра
var ClientIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

const (
	// MinClientIDLen минимальная длина client id
	MinClientIDLen = 2
	// MaxClientIDLen максимальная длина client id
	MaxClientIDLen = 64
)

// ValidateClientID проверяет, что client id можно встроить в токен и использовать
// как ключ per-client лимита
func ValidateClientID(clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client id cannot be empty")
	}

	if len(clientID) < MinClientIDLen {
		return fmt.Errorf("client id must be at least %d characters long", MinClientIDLen)
	}

	if len(clientID) > MaxClientIDLen {
		return fmt.Errorf("client id must not exceed %d characters", MaxClientIDLen)
	}

	if !ClientIDPattern.MatchString(clientID) {
		return fmt.Errorf("client id can only contain letters, numbers, '_', '-' and '.', and must start with a letter or number")
	}

	return nil
}
