// Package attendance — extractor.go: построение события из сырого сообщения.
//
// Экстрактор — чистое преобразование: никакой записи в базу, только
// разрешение участников через roster. Сохранение выполняет оркестратор.
package attendance

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"sengoku.gg/attendance-bot/internal/config"
	"sengoku.gg/attendance-bot/internal/features/roster"
)

// mentionPattern — разметка упоминаний Discord: <@id>, <@!id>, <@&id>.
var mentionPattern = regexp.MustCompile(`<@[!&]?(\d+)>`)

// Extractor строит события из сообщений.
type Extractor struct {
	roster       *roster.Service
	cfg          *config.Config
	disbandWords map[string]struct{}
}

func NewExtractor(rosterService *roster.Service, cfg *config.Config) *Extractor {
	words := make(map[string]struct{}, len(cfg.DisbandWords))
	for _, w := range cfg.DisbandWords {
		words[w] = struct{}{}
	}
	return &Extractor{roster: rosterService, cfg: cfg, disbandWords: words}
}

// Extract превращает сообщение и его ветку в событие.
//
// Порядок проверок дизбанда фиксирован и значим:
//  1. ключевые слова в тексте сообщения;
//  2. ключевые слова в ответах ветки ОТ АВТОРА исходного сообщения
//     («организатор отменил задним числом, в ответе»);
//  3. минимальный состав: меньше MinUsers различных упомянутых — дизбанд,
//     каким бы ни был текст. Эта проверка всегда последняя.
func (e *Extractor) Extract(ctx context.Context, msg Message, thread []Message) *Event {
	event := &Event{
		MessageID:   msg.ID,
		Author:      e.roster.ResolveCached(ctx, msg.GuildID, msg.AuthorID),
		MessageText: msg.Content,
		ReadTime:    msg.Timestamp,
		ChannelID:   msg.ChannelID,
		ChannelName: msg.ChannelName,
		GuildID:     msg.GuildID,
	}

	if e.hasDisbandWord(msg.Content) {
		event.Disband = 1
	}

	for _, reply := range thread {
		event.BranchMessages = append(event.BranchMessages, BranchMessage{
			MessageID:   reply.ID,
			MessageText: reply.Content,
			ReadTime:    reply.Timestamp,
		})
		if reply.AuthorID == msg.AuthorID && e.hasDisbandWord(reply.Content) {
			event.Disband = 1
		}
	}

	event.MentionedUsers = e.mentionedUsers(ctx, msg)

	if len(event.MentionedUsers) < e.cfg.MinUsers {
		event.Disband = 1
	}

	return event
}

// hasDisbandWord проверяет, есть ли среди слов текста слово отмены.
// Сравнение потокенное: слова текста в нижнем регистре против
// фиксированного набора («дизбанд», «диз», ...).
func (e *Extractor) hasDisbandWord(text string) bool {
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if _, ok := e.disbandWords[token]; ok {
			return true
		}
	}
	return false
}

// mentionedUsers извлекает ID из разметки упоминаний, убирает дубликаты
// и разрешает каждый через roster. Порядок первого вхождения сохраняется.
func (e *Extractor) mentionedUsers(ctx context.Context, msg Message) []*roster.User {
	if !strings.Contains(msg.Content, "<@") {
		return nil
	}

	seen := make(map[int64]struct{})
	var users []*roster.User
	for _, m := range mentionPattern.FindAllStringSubmatch(msg.Content, -1) {
		uid, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		users = append(users, e.roster.ResolveCached(ctx, msg.GuildID, uid))
	}
	return users
}
