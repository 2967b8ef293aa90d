// Package attendance превращает сырые сообщения каналов сбора в события
// посещаемости: определяет дизбанд, извлекает упомянутых участников,
// начисляет очки и идемпотентно сохраняет результат.
// models.go описывает структуры данных событий.
package attendance

import (
	"time"

	"sengoku.gg/attendance-bot/internal/features/roster"
)

// Message — сырое сообщение из канала, как его отдаёт история Discord.
// Вход экстрактора; ThreadID равен 0, если у сообщения нет ветки.
type Message struct {
	ID          int64
	AuthorID    int64
	ChannelID   int64
	ChannelName string
	GuildID     int64
	Content     string
	Timestamp   time.Time
	ThreadID    int64
}

// BranchMessage — ответ в ветке события. Хранится для аудита поздних
// объявлений дизбанда организатором внутри ветки.
type BranchMessage struct {
	MessageID   int64
	MessageText string
	ReadTime    time.Time
}

// Event — одно сообщение-событие, пригодное для учёта посещаемости.
//
// Очки начисляются и хранятся ДАЖЕ для дизбанднутых событий: из итогов
// их исключает запрос на чтение (фильтр disband != 1), а не обнуление —
// так история остаётся пригодной для аудита.
type Event struct {
	MessageID      int64
	Author         *roster.User
	MessageText    string
	Disband        int // 1 — контент отменён
	ReadTime       time.Time
	ChannelID      int64
	ChannelName    string
	GuildID        int64
	Points         int
	Hidden         int // 1 — событие из закрытой группы каналов
	MentionedUsers []*roster.User
	BranchMessages []BranchMessage
}
