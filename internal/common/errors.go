// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют вызывающему коду различать типы проблем
// через errors.Is, не разбирая текст сообщения.
package common

import "errors"

// Ошибки работы с участниками
var (
	// ErrUserNotFound — пользователь не найден в локальной базе
	ErrUserNotFound = errors.New("пользователь не найден в базе")
	// ErrMemberNotFound — участник не найден на сервере Discord
	// (вышел из гильдии, либо запрос запрещён)
	ErrMemberNotFound = errors.New("участник не найден на сервере")
)

// Ошибки событий
var (
	// ErrEventNotFound — событие не найдено в базе
	ErrEventNotFound = errors.New("событие не найдено в базе")
)

// Ошибки месячного архивирования
var (
	// ErrArchiveExists — архив за этот месяц уже существует.
	// Обычно означает, что задача запустилась дважды за месяц;
	// живая база при этом НЕ удаляется.
	ErrArchiveExists = errors.New("архив за этот месяц уже существует")
	// ErrStoreMissing — файл живой базы не найден перед архивированием
	ErrStoreMissing = errors.New("файл базы данных не найден")
)
