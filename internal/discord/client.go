// Package discord — адаптеры внешних интерфейсов бота поверх Discord REST API.
//
// Бот не держит gateway-соединение: вся работа — чтение истории каналов,
// справочник участников и реакции — идёт обычными REST-запросами через
// одну сессию discordgo.
package discord

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Сдвиг эпохи Discord (мс от Unix-эпохи до 2015-01-01).
const discordEpochMS = 1420070400000

// NewSession создаёт REST-сессию с токеном бота и проверяет авторизацию.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии Discord: %w", err)
	}
	self, err := session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("ошибка авторизации в Discord: %w", err)
	}
	log.Infof("Авторизован как %s", self.Username)
	return session, nil
}

// snowflakeFromTime возвращает минимальный snowflake для момента t.
// Используется как курсор after при пагинации истории.
func snowflakeFromTime(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMS
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID переводит строковый snowflake в int64; пустая или битая
// строка даёт 0.
func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
