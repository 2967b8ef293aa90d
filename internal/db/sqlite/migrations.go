// Package sqlite — migrations.go: схема живой базы.
//
// Схема встроена в код и применяется при каждом открытии файла.
// Все выражения идемпотентны (CREATE TABLE IF NOT EXISTS) — живая база
// удаляется каждый месяц при архивировании, версионировать нечего.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS USERS (
    uid INTEGER PRIMARY KEY,
    server_username TEXT,
    global_username TEXT,
    liable INTEGER,
    visible INTEGER,
    timeout DATETIME,
    need_to_get INTEGER DEFAULT 45,
    is_member INTEGER DEFAULT 1,
    join_date DATETIME,
    roles TEXT
);`,
	`CREATE TABLE IF NOT EXISTS EVENTS (
    message_id INTEGER PRIMARY KEY,
    author_user_id INTEGER,
    message_text TEXT,
    disband INTEGER,
    read_time DATETIME,
    channel_id INTEGER,
    channel_name TEXT,
    guild_id INTEGER,
    points INTEGER DEFAULT 0,
    hidden INTEGER DEFAULT 0,
    FOREIGN KEY (author_user_id) REFERENCES USERS(uid)
);`,
	`CREATE TABLE IF NOT EXISTS EVENTS_TO_USERS (
    ds_uid INTEGER,
    message_id INTEGER,
    PRIMARY KEY (ds_uid, message_id),
    FOREIGN KEY (ds_uid) REFERENCES USERS(uid),
    FOREIGN KEY (message_id) REFERENCES EVENTS(message_id)
);`,
	`CREATE TABLE IF NOT EXISTS BRANCH_MESSAGES (
    message_id INTEGER PRIMARY KEY,
    parent_message_id INTEGER,
    message_text TEXT,
    read_time DATETIME,
    FOREIGN KEY (parent_message_id) REFERENCES EVENTS(message_id)
);`,
}

// migrate применяет схему к открытой базе.
func migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("выражение схемы %d: %w", i+1, err)
		}
	}
	return nil
}
