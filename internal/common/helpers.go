// Package common содержит общие утилиты, используемые во всём проекте.
// helpers.go — работа с календарными месяцами: границы месяца, окно
// предыдущего месяца, имена архивных файлов.
package common

import (
	"fmt"
	"strings"
	"time"
)

// MonthStart возвращает полночь первого числа месяца, в котором лежит t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// NextMonthStart возвращает полночь первого числа СЛЕДУЮЩЕГО месяца.
// time.Date нормализует переполнение месяца, поэтому декабрь
// корректно переходит в январь следующего года.
func NextMonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}

// MonthWindow возвращает границы календарного месяца, в котором лежит t:
// [первое число 00:00, первое число следующего месяца 00:00).
//
// Используется при пересчёте месяца перед архивированием: окно сбора
// принудительно выставляется на весь прошедший месяц.
func MonthWindow(t time.Time) (after, before time.Time) {
	return MonthStart(t), NextMonthStart(t)
}

// DaysUntilMonthEnd возвращает число дней от t до конца ЕГО месяца.
// Считается относительно самой даты t, а не «сегодня» — это важно
// для пропорциональной месячной нормы новичков: норма фиксируется
// датой вступления и не зависит от момента пересчёта.
func DaysUntilMonthEnd(t time.Time) int {
	return int(NextMonthStart(t).Sub(t).Hours() / 24)
}

// ArchiveFileName возвращает имя архивного файла для месяца даты t.
// Формат: "october_2025.db" — английское название месяца в нижнем
// регистре плюс год. Имя должно быть стабильным: по нему же
// определяется, что архив за месяц уже снят.
func ArchiveFileName(t time.Time) string {
	return fmt.Sprintf("%s_%d.db", strings.ToLower(t.Month().String()), t.Year())
}
