// Package roster — repository.go отвечает за операции с таблицей USERS.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/db/sqlite"
)

type Repository struct {
	store *sqlite.Store
}

func NewRepository(store *sqlite.Store) *Repository {
	return &Repository{store: store}
}

// Upsert записывает пользователя целиком (INSERT OR REPLACE).
// Повторная запись того же uid полностью перезаписывает строку.
func (r *Repository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT OR REPLACE INTO USERS (
			uid, server_username, global_username, liable, visible,
			timeout, need_to_get, is_member, join_date, roles
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.ExecContext(ctx, query,
		u.UID, u.ServerUsername, u.GlobalUsername, u.Liable, u.Visible,
		u.Timeout, u.NeedToGet, u.IsMember, u.JoinDate, u.Roles,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи пользователя (uid=%d): %w", u.UID, err)
	}
	return nil
}

// GetByUID: если не найден — ошибка common.ErrUserNotFound
// (errors.Is(err, common.ErrUserNotFound) == true).
func (r *Repository) GetByUID(ctx context.Context, uid int64) (*User, error) {
	query := `
		SELECT uid, server_username, global_username, liable, visible,
		       timeout, need_to_get, is_member, join_date, roles
		FROM USERS
		WHERE uid = ?
	`
	row, err := r.store.QueryRowContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения пользователя (uid=%d): %w", uid, err)
	}
	var u User
	err = row.Scan(
		&u.UID, &u.ServerUsername, &u.GlobalUsername, &u.Liable, &u.Visible,
		&u.Timeout, &u.NeedToGet, &u.IsMember, &u.JoinDate, &u.Roles,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("uid=%d: %w", uid, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (uid=%d): %w", uid, err)
	}
	return &u, nil
}

// Exists проверяет наличие пользователя в базе без чтения всей строки.
func (r *Repository) Exists(ctx context.Context, uid int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM USERS WHERE uid = ?)`
	row, err := r.store.QueryRowContext(ctx, query, uid)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}
