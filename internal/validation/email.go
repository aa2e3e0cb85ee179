package validation

import "regexp"

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// IsValidEmail проверяет базовый синтаксис адреса электронной почты.
func IsValidEmail(candidate string) bool {
	return emailPattern.MatchString(candidate)
}
