// Package attendance — repository.go отвечает за таблицы EVENTS,
// BRANCH_MESSAGES и EVENTS_TO_USERS.
//
// Запись события всегда перезаписывает: строку автора в USERS, строку
// события, строки всех упомянутых, сообщения ветки и связи
// участник-событие. Все записи — INSERT OR REPLACE с ключом по ID,
// поэтому повторный сбор того же окна безопасен.
package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/db/sqlite"
	"sengoku.gg/attendance-bot/internal/features/roster"
)

type Repository struct {
	store *sqlite.Store
	users *roster.Repository
}

func NewRepository(store *sqlite.Store, users *roster.Repository) *Repository {
	return &Repository{store: store, users: users}
}

// UpsertEvent сохраняет событие целиком. Порядок записей важен из-за
// внешних ключей: пользователи раньше события, событие раньше ветки
// и связей.
func (r *Repository) UpsertEvent(ctx context.Context, e *Event) error {
	if e.Author == nil {
		return fmt.Errorf("событие %d без автора", e.MessageID)
	}
	if err := r.users.Upsert(ctx, e.Author); err != nil {
		return err
	}

	query := `
		INSERT OR REPLACE INTO EVENTS (
			message_id, author_user_id, message_text, disband, read_time,
			channel_id, channel_name, guild_id, points, hidden
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.ExecContext(ctx, query,
		e.MessageID, e.Author.UID, e.MessageText, e.Disband, e.ReadTime,
		e.ChannelID, e.ChannelName, e.GuildID, e.Points, e.Hidden,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи события (message_id=%d): %w", e.MessageID, err)
	}

	for _, mu := range e.MentionedUsers {
		if err := r.users.Upsert(ctx, mu); err != nil {
			return err
		}
	}
	for _, bm := range e.BranchMessages {
		if err := r.upsertBranchMessage(ctx, e.MessageID, bm); err != nil {
			return err
		}
	}
	for _, mu := range e.MentionedUsers {
		if err := r.upsertLink(ctx, mu.UID, e.MessageID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) upsertBranchMessage(ctx context.Context, parentID int64, bm BranchMessage) error {
	query := `
		INSERT OR REPLACE INTO BRANCH_MESSAGES (message_id, parent_message_id, message_text, read_time)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.store.ExecContext(ctx, query, bm.MessageID, parentID, bm.MessageText, bm.ReadTime); err != nil {
		return fmt.Errorf("ошибка записи сообщения ветки (message_id=%d): %w", bm.MessageID, err)
	}
	return nil
}

func (r *Repository) upsertLink(ctx context.Context, uid, messageID int64) error {
	query := `INSERT OR REPLACE INTO EVENTS_TO_USERS (ds_uid, message_id) VALUES (?, ?)`
	if _, err := r.store.ExecContext(ctx, query, uid, messageID); err != nil {
		return fmt.Errorf("ошибка записи связи (uid=%d, message_id=%d): %w", uid, messageID, err)
	}
	return nil
}

// GetEvent читает одну строку события по message_id.
// Автор подставляется из USERS; агрегаты (упомянутые, ветка)
// читаются отдельными методами.
func (r *Repository) GetEvent(ctx context.Context, messageID int64) (*Event, error) {
	query := `
		SELECT message_id, author_user_id, message_text, disband, read_time,
		       channel_id, channel_name, guild_id, points, hidden
		FROM EVENTS
		WHERE message_id = ?
	`
	row, err := r.store.QueryRowContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения события (message_id=%d): %w", messageID, err)
	}
	var e Event
	var authorUID int64
	err = row.Scan(
		&e.MessageID, &authorUID, &e.MessageText, &e.Disband, &e.ReadTime,
		&e.ChannelID, &e.ChannelName, &e.GuildID, &e.Points, &e.Hidden,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("событие %d: %w", messageID, common.ErrEventNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения события (message_id=%d): %w", messageID, err)
	}
	author, err := r.users.GetByUID(ctx, authorUID)
	if err != nil {
		return nil, err
	}
	e.Author = author
	return &e, nil
}

// Participants возвращает uid всех участников события из связей.
func (r *Repository) Participants(ctx context.Context, messageID int64) ([]int64, error) {
	rows, err := r.store.QueryContext(ctx,
		`SELECT ds_uid FROM EVENTS_TO_USERS WHERE message_id = ? ORDER BY ds_uid`, messageID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения участников события: %w", err)
	}
	defer rows.Close()

	var uids []int64
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}

// Branches возвращает сообщения ветки события, старые первыми.
func (r *Repository) Branches(ctx context.Context, messageID int64) ([]BranchMessage, error) {
	rows, err := r.store.QueryContext(ctx, `
		SELECT message_id, message_text, read_time
		FROM BRANCH_MESSAGES
		WHERE parent_message_id = ?
		ORDER BY message_id ASC
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ветки события: %w", err)
	}
	defer rows.Close()

	var out []BranchMessage
	for rows.Next() {
		var bm BranchMessage
		if err := rows.Scan(&bm.MessageID, &bm.MessageText, &bm.ReadTime); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, bm)
	}
	return out, rows.Err()
}

// LeaderboardRow — строка сводки витрины: участник, число посещённых
// контентов и сумма очков (без дизбанднутых).
type LeaderboardRow struct {
	UID         int64
	DisplayName string
	EventCount  int
	TotalPoints int
}

// Leaderboard возвращает сводку по всем пользователям: число различных
// НЕдизбанднутых событий и сумму очков по ним. Дизбанднутые события
// отсекаются здесь, на чтении.
func (r *Repository) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	rows, err := r.store.QueryContext(ctx, `
		SELECT u.uid,
		       COALESCE(NULLIF(u.server_username, ''), NULLIF(u.global_username, ''), '—') AS display_name,
		       COUNT(DISTINCT CASE WHEN e.disband != 1 THEN e.message_id END) AS event_count,
		       COALESCE(SUM(CASE WHEN e.disband != 1 THEN e.points ELSE 0 END), 0) AS total_points
		FROM USERS u
		LEFT JOIN EVENTS_TO_USERS etu ON etu.ds_uid = u.uid
		LEFT JOIN EVENTS e ON e.message_id = etu.message_id
		GROUP BY u.uid
		ORDER BY total_points DESC, event_count DESC, display_name COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сводки: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UID, &row.DisplayName, &row.EventCount, &row.TotalPoints); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// EventsByUser возвращает историю событий участника, новые первыми.
// Автор и агрегаты не заполняются — витрине нужны только поля события.
func (r *Repository) EventsByUser(ctx context.Context, uid int64) ([]*Event, error) {
	rows, err := r.store.QueryContext(ctx, `
		SELECT e.message_id, e.message_text, e.disband, e.read_time,
		       e.channel_id, e.channel_name, e.guild_id, e.points, e.hidden
		FROM EVENTS_TO_USERS etu
		JOIN EVENTS e ON e.message_id = etu.message_id
		WHERE etu.ds_uid = ?
		ORDER BY e.message_id DESC
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории (uid=%d): %w", uid, err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.MessageID, &e.MessageText, &e.Disband, &e.ReadTime,
			&e.ChannelID, &e.ChannelName, &e.GuildID, &e.Points, &e.Hidden,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
