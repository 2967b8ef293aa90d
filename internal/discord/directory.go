// Package discord — directory.go: справочник участников гильдии.
// Реализует roster.Directory поверх REST-запросов discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/features/roster"
)

// Сколько участников запрашивается за одну страницу (лимит Discord API).
const membersPageSize = 1000

// Directory — справочник участников поверх Discord.
// Имена ролей гильдии кэшируются на время жизни процесса: Discord
// отдаёт у участника только ID ролей, а таблица уровней
// ответственности задана именами.
type Directory struct {
	session *discordgo.Session

	mu    sync.Mutex
	roles map[int64]map[string]string // guildID → roleID → имя роли
}

func NewDirectory(session *discordgo.Session) *Directory {
	return &Directory{
		session: session,
		roles:   make(map[int64]map[string]string),
	}
}

// Member возвращает живое членство пользователя в гильдии.
// Если пользователь не состоит в гильдии или запрос запрещён —
// common.ErrMemberNotFound.
func (d *Directory) Member(ctx context.Context, guildID, userID int64) (*roster.Member, error) {
	m, err := d.session.GuildMember(formatID(guildID), formatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("uid=%d: %w", userID, common.ErrMemberNotFound)
		}
		return nil, fmt.Errorf("ошибка запроса участника (uid=%d): %w", userID, err)
	}
	return d.convertMember(ctx, guildID, m), nil
}

// GlobalName возвращает глобальное имя профиля пользователя —
// запасной вариант для тех, кто уже не состоит в гильдии.
func (d *Directory) GlobalName(ctx context.Context, userID int64) (string, error) {
	u, err := d.session.User(formatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("ошибка запроса профиля (uid=%d): %w", userID, err)
	}
	if u.GlobalName != "" {
		return u.GlobalName, nil
	}
	return u.Username, nil
}

// Members возвращает всех участников гильдии, постранично.
func (d *Directory) Members(ctx context.Context, guildID int64) ([]roster.Member, error) {
	var out []roster.Member
	after := ""
	for {
		page, err := d.session.GuildMembers(formatID(guildID), after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("ошибка запроса состава гильдии: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			out = append(out, *d.convertMember(ctx, guildID, m))
		}
		after = page[len(page)-1].User.ID
		if len(page) < membersPageSize {
			break
		}
	}
	return out, nil
}

func (d *Directory) convertMember(ctx context.Context, guildID int64, m *discordgo.Member) *roster.Member {
	out := &roster.Member{
		Roles: d.roleNames(ctx, guildID, m.Roles),
	}
	if m.User != nil {
		out.UserID = parseID(m.User.ID)
		out.GlobalName = m.User.GlobalName
		if out.GlobalName == "" {
			out.GlobalName = m.User.Username
		}
	}
	// Серверный ник: явный ник, иначе имя профиля
	out.DisplayName = m.Nick
	if out.DisplayName == "" {
		out.DisplayName = out.GlobalName
	}
	if !m.JoinedAt.IsZero() {
		joined := m.JoinedAt.UTC()
		out.JoinedAt = &joined
	}
	return out
}

// roleNames переводит ID ролей участника в имена по кэшу ролей гильдии.
func (d *Directory) roleNames(ctx context.Context, guildID int64, roleIDs []string) []string {
	table, err := d.guildRoles(ctx, guildID)
	if err != nil {
		// Без таблицы ролей участник получит обычный уровень — это
		// деградация, а не отказ разрешения.
		return nil
	}
	var names []string
	for _, id := range roleIDs {
		if name, ok := table[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (d *Directory) guildRoles(ctx context.Context, guildID int64) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if table, ok := d.roles[guildID]; ok {
		return table, nil
	}
	roles, err := d.session.GuildRoles(formatID(guildID), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ролей гильдии: %w", err)
	}
	table := make(map[string]string, len(roles))
	for _, r := range roles {
		table[r.ID] = r.Name
	}
	d.roles[guildID] = table
	return table, nil
}

// isNotFound распознаёт ответы Discord, означающие «участника нет»:
// 404 (не найден) и 403 (запрос запрещён).
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code == http.StatusNotFound || code == http.StatusForbidden
	}
	return false
}

var _ roster.Directory = (*Directory)(nil)
