// Package validation содержит функции валидации входных данных.
package validation

import "strings"

// NormalizeCPF убирает форматирующие точки и дефисы из CPF.
func NormalizeCPF(raw string) string {
	return strings.NewReplacer(".", "", "-", "").Replace(raw)
}

// IsValidCPF проверяет корректность CPF по контрольным цифрам.
// Ожидает уже нормализованную строку из 11 цифр.
func IsValidCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}

	digits := make([]int, 11)
	allSame := true
	for i := 0; i < 11; i++ {
		ch := cpf[i]
		if ch < '0' || ch > '9' {
			return false
		}
		digits[i] = int(ch - '0')
		if digits[i] != digits[0] {
			allSame = false
		}
	}

	// CPF из одинаковых цифр проходит по контрольной сумме, но невалиден.
	if allSame {
		return false
	}

	if checkDigit(digits[:9], 10) != digits[9] {
		return false
	}

	return checkDigit(digits[:10], 11) == digits[10]
}

func checkDigit(digits []int, startWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (startWeight - i)
	}

	d := 11 - sum%11
	if d > 9 {
		return 0
	}
	return d
}
