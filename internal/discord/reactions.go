// Package discord — reactions.go: реакции-вердикты на сообщениях.
// Реализует collector.Ack: ✅ — контент засчитан, ❌ — дизбанд.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"sengoku.gg/attendance-bot/internal/features/collector"
)

const (
	reactionPass = "✅"
	reactionFail = "❌"
)

// Reactions ставит реакции на исходные сообщения событий.
type Reactions struct {
	session *discordgo.Session
}

func NewReactions(session *discordgo.Session) *Reactions {
	return &Reactions{session: session}
}

// MarkOutcome ставит на сообщение реакцию по итогу события.
func (r *Reactions) MarkOutcome(ctx context.Context, channelID, messageID int64, passed bool) error {
	emoji := reactionFail
	if passed {
		emoji = reactionPass
	}
	err := r.session.MessageReactionAdd(formatID(channelID), formatID(messageID), emoji, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ошибка реакции на сообщение %d: %w", messageID, err)
	}
	return nil
}

var _ collector.Ack = (*Reactions)(nil)
