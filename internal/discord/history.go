// Package discord — history.go: чтение истории каналов и веток.
// Реализует collector.History поверх пагинации REST API.
package discord

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"sengoku.gg/attendance-bot/internal/features/attendance"
	"sengoku.gg/attendance-bot/internal/features/collector"
)

// Размер страницы истории (лимит Discord API).
const historyPageSize = 100

// History читает историю каналов Discord, отдавая сообщения старыми
// первыми — порядок обработки внутри канала значим для сбора.
type History struct {
	session *discordgo.Session
}

func NewHistory(session *discordgo.Session) *History {
	return &History{session: session}
}

// ChannelMessages возвращает сообщения канала в окне (after, before),
// старые первыми. Пагинация идёт курсором after по snowflake — Discord
// не гарантирует порядок внутри страницы, поэтому каждая страница
// сортируется по ID (ID монотонны по времени).
func (h *History) ChannelMessages(ctx context.Context, channelID int64, after, before time.Time) ([]attendance.Message, error) {
	channel, err := h.session.Channel(formatID(channelID), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса канала %d: %w", channelID, err)
	}

	var out []attendance.Message
	cursor := snowflakeFromTime(after)
	for {
		page, err := h.session.ChannelMessages(channel.ID, historyPageSize, "", cursor, "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения истории канала %d: %w", channelID, err)
		}
		if len(page) == 0 {
			break
		}
		sortByID(page)

		for _, m := range page {
			if !m.Timestamp.Before(before) {
				// Дошли до границы окна — дальше только новее
				return out, nil
			}
			out = append(out, convertMessage(m, channel))
		}

		cursor = page[len(page)-1].ID
		if len(page) < historyPageSize {
			break
		}
	}
	return out, nil
}

// ThreadMessages возвращает все сообщения ветки, старые первыми.
func (h *History) ThreadMessages(ctx context.Context, threadID int64) ([]attendance.Message, error) {
	thread, err := h.session.Channel(formatID(threadID), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ветки %d: %w", threadID, err)
	}

	var out []attendance.Message
	cursor := "0"
	for {
		page, err := h.session.ChannelMessages(thread.ID, historyPageSize, "", cursor, "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения ветки %d: %w", threadID, err)
		}
		if len(page) == 0 {
			break
		}
		sortByID(page)

		for _, m := range page {
			out = append(out, convertMessage(m, thread))
		}

		cursor = page[len(page)-1].ID
		if len(page) < historyPageSize {
			break
		}
	}
	return out, nil
}

func convertMessage(m *discordgo.Message, channel *discordgo.Channel) attendance.Message {
	msg := attendance.Message{
		ID:          parseID(m.ID),
		ChannelID:   parseID(m.ChannelID),
		ChannelName: channel.Name,
		GuildID:     parseID(channel.GuildID),
		Content:     m.Content,
		Timestamp:   m.Timestamp.UTC(),
	}
	if m.Author != nil {
		msg.AuthorID = parseID(m.Author.ID)
	}
	if m.Thread != nil {
		msg.ThreadID = parseID(m.Thread.ID)
	}
	return msg
}

// sortByID сортирует страницу сообщений по возрастанию snowflake.
func sortByID(page []*discordgo.Message) {
	sort.Slice(page, func(i, j int) bool {
		return parseID(page[i].ID) < parseID(page[j].ID)
	})
}

var _ collector.History = (*History)(nil)
