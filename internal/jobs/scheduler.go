// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: регулярный сбор событий,
// ежедневная синхронизация состава и месячное закрытие первого числа.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"sengoku.gg/attendance-bot/internal/config"
	"sengoku.gg/attendance-bot/internal/features/archive"
	"sengoku.gg/attendance-bot/internal/features/collector"
	"sengoku.gg/attendance-bot/internal/features/roster"
)

// Scheduler управляет фоновыми задачами.
// Все задачи пишут в одну живую базу, поэтому выполняются строго
// по очереди под общим замком (см. runJob).
type Scheduler struct {
	cron          *cron.Cron
	mu            sync.Mutex
	collectorSvc  *collector.Service
	rosterService *roster.Service
	archiveSvc    *archive.Service
	cfg           *config.Config
}

// NewScheduler создаёт планировщик задач в часовом поясе из конфига.
func NewScheduler(
	collectorSvc *collector.Service,
	rosterService *roster.Service,
	archiveSvc *archive.Service,
	cfg *config.Config,
) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Не удалось загрузить %s, используем UTC+3", cfg.AppTimezone)
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		collectorSvc:  collectorSvc,
		rosterService: rosterService,
		archiveSvc:    archiveSvc,
		cfg:           cfg,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	s.addJob(s.cfg.CollectCron, "сбор событий", func() error {
		after, before := s.cfg.ResolveWindow(time.Now())
		return s.collectorSvc.Run(ctx, after, before, s.cfg.ReactToMessages)
	})

	s.addJob(s.cfg.SyncCron, "синхронизация состава", func() error {
		return s.rosterService.RefreshAll(ctx, s.cfg.GuildID)
	})

	// Первого числа закрывается ПРОШЕДШИЙ месяц: явная метка «вчера»
	// вместо глобального «сегодня», чтобы запуск в полночь первого
	// числа попадал в нужный месяц.
	s.addJob(s.cfg.RolloverCron, "месячное закрытие", func() error {
		return s.archiveSvc.Run(ctx, time.Now().AddDate(0, 0, -1))
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

func (s *Scheduler) addJob(spec, name string, job func() error) {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, job)
	})
	if err != nil {
		log.WithError(err).Errorf("Не удалось добавить задачу «%s» (spec=%q)", name, spec)
	}
}

// runJob выполняет задачу под общим замком. cron запускает совпавшие
// по времени задачи в отдельных горутинах, а первого числа в полночь
// сбор и месячное закрытие совпадают — без замка сбор писал бы в базу
// между снятием архива и её сбросом.
func (s *Scheduler) runJob(name string, job func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Infof("[CRON] %s", name)
	if err := job(); err != nil {
		log.WithError(err).Errorf("[CRON] Ошибка задачи «%s»", name)
	}
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
