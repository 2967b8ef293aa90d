// Package roster управляет участниками гильдии: разрешением Discord-ID
// в запись пользователя, уровнями ответственности и месячной нормой.
// models.go описывает структуры данных для работы с таблицей USERS.
package roster

import "time"

// User представляет участника гильдии в базе данных.
// Запись создаётся при первом разрешении ID (автор или упомянутый
// в событии) и полностью перезаписывается при каждом свежем
// разрешении — инкрементального слияния полей нет.
type User struct {
	UID            int64      // Discord user ID (первичный ключ)
	ServerUsername *string    // Ник на сервере (может быть nil)
	GlobalUsername *string    // Глобальное имя (может быть nil)
	Liable         int        // Уровень ответственности: 0 — освобождён, 1 — обычный, 2..4 — админ-уровни
	Visible        int        // Показывать ли на витрине (0/1)
	Timeout        *time.Time // Техническая приостановка (хранится как есть)
	NeedToGet      int        // Месячная норма очков (0–45), 0 для не-участников
	IsMember       int        // Состоит ли сейчас в гильдии (0/1)
	JoinDate       *time.Time // Дата вступления, только из живого членства
	Roles          *string    // Имена ролей через запятую (для аудита уровня)
}

// DisplayName возвращает отображаемое имя пользователя.
// Приоритет: серверный ник → глобальное имя → "—".
func (u *User) DisplayName() string {
	if u.ServerUsername != nil && *u.ServerUsername != "" {
		return *u.ServerUsername
	}
	if u.GlobalUsername != nil && *u.GlobalUsername != "" {
		return *u.GlobalUsername
	}
	return "—"
}
