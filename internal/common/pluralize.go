// Package common — pluralize.go: русская плюрализация для логов.
package common

import "math"

// PluralizeMessages возвращает правильную форму слова «сообщение» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "сообщение" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "сообщения" (2, 3, 4, 22, ...)
//   - Остальные случаи → "сообщений" (0, 5-20, 25-30, 100, ...)
func PluralizeMessages(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "сообщение"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "сообщения"
	}
	return "сообщений"
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}
