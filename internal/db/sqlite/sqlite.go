// Package sqlite управляет живой базой данных бота — одним файлом SQLite.
//
// Файловая база выбрана намеренно: месячное архивирование устроено как
// копирование файла в датированный архив и удаление живого файла, после
// чего схема создаётся заново. Store умеет переоткрывать соединение
// (Reset), поэтому репозитории держат ссылку на Store, а не на *sql.DB.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3" // драйвер SQLite
	log "github.com/sirupsen/logrus"
)

// Store — обёртка над соединением с файлом SQLite.
// Все операции проксируются под RLock, чтобы месячный Reset
// не гонялся с запросами репозиториев.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// New открывает (или создаёт) файл базы по пути path и применяет схему.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Info("База данных открыта")
	return &Store{db: db, path: path}, nil
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	// _foreign_keys=on — внешние ключи в SQLite по умолчанию выключены
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}
	return db, nil
}

// Path возвращает путь к файлу живой базы.
func (s *Store) Path() string {
	return s.path
}

// Close закрывает соединение с базой.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Reset удаляет файл живой базы и создаёт его заново с пустой схемой.
// Вызывается после снятия месячного архива. Соединение закрывается
// ДО удаления файла — иначе SQLite оставит открытый дескриптор.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия базы перед сбросом: %w", err)
		}
		s.db = nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла базы: %w", err)
	}

	db, err := open(ctx, s.path)
	if err != nil {
		return err
	}
	s.db = db
	log.WithField("path", s.path).Info("Живая база сброшена и создана заново")
	return nil
}

// ExecContext выполняет запрос без результата.
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, sql.ErrConnDone
	}
	return s.db.ExecContext(ctx, query, args...)
}

// QueryContext выполняет запрос с множеством строк результата.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, sql.ErrConnDone
	}
	return s.db.QueryContext(ctx, query, args...)
}

// QueryRowContext выполняет запрос с одной строкой результата.
// *sql.Row нельзя построить руками, поэтому закрытое состояние
// возвращается отдельной ошибкой, а не отложенно через Scan.
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, sql.ErrConnDone
	}
	return s.db.QueryRowContext(ctx, query, args...), nil
}
