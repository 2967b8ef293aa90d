// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: открывает базу, создаёт Discord-сессию,
// репозитории, сервисы и планировщик, собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"sengoku.gg/attendance-bot/internal/config"
	"sengoku.gg/attendance-bot/internal/db/sqlite"
	"sengoku.gg/attendance-bot/internal/discord"
	"sengoku.gg/attendance-bot/internal/features/archive"
	"sengoku.gg/attendance-bot/internal/features/attendance"
	"sengoku.gg/attendance-bot/internal/features/collector"
	"sengoku.gg/attendance-bot/internal/features/roster"
	"sengoku.gg/attendance-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Scheduler *jobs.Scheduler
	Collector *collector.Service
	Roster    *roster.Service
	Archive   *archive.Service
	Store     *sqlite.Store
	Session   *discordgo.Session
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы: %w", err)
	}

	// === 2. Discord ===
	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		store.Close()
		return nil, err
	}
	directory := discord.NewDirectory(session)
	history := discord.NewHistory(session)
	reactions := discord.NewReactions(session)

	// === 3. Репозитории ===
	userRepo := roster.NewRepository(store)
	eventRepo := attendance.NewRepository(store, userRepo)

	// === 4. Сервисы ===
	rosterService := roster.NewService(userRepo, directory, cfg)
	extractor := attendance.NewExtractor(rosterService, cfg)
	scorer := attendance.NewScorer(cfg)
	collectorService := collector.NewService(extractor, scorer, eventRepo, history, reactions, cfg)
	website := archive.NewWebsite(cfg.WebsiteEnvPath, cfg.PM2WebsiteName)
	archiveService := archive.NewService(collectorService, store, website, cfg.ArchiveDir)

	// === 5. Планировщик задач ===
	scheduler := jobs.NewScheduler(collectorService, rosterService, archiveService, cfg)

	return &App{
		Scheduler: scheduler,
		Collector: collectorService,
		Roster:    rosterService,
		Archive:   archiveService,
		Store:     store,
		Session:   session,
	}, nil
}
