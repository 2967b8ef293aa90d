// Package collector — оркестратор сбора: обходит настроенные каналы
// в заданном окне времени, прогоняет каждое сообщение через экстрактор
// и подсчёт очков, сохраняет событие и ставит реакцию-вердикт.
//
// Выполнение строго последовательное: каналы по одному, сообщения
// внутри канала по одному, старые первыми. Порядок внутри ветки
// определяет итоговый дизбанд, а перезаписи по message_id не
// рассчитаны на гонки — параллелить тут нечего.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/config"
	"sengoku.gg/attendance-bot/internal/features/attendance"
)

// History — внешняя история каналов Discord.
// ChannelMessages возвращает сообщения окна (after, before), старые
// первыми; ThreadMessages — сообщения ветки, старые первыми.
type History interface {
	ChannelMessages(ctx context.Context, channelID int64, after, before time.Time) ([]attendance.Message, error)
	ThreadMessages(ctx context.Context, threadID int64) ([]attendance.Message, error)
}

// Ack — приёмник реакций-вердиктов. Побочный эффект best-effort:
// ошибка логируется и никогда не влияет на сбор.
type Ack interface {
	MarkOutcome(ctx context.Context, channelID, messageID int64, passed bool) error
}

// Service — оркестратор одного прогона сбора.
type Service struct {
	extractor *attendance.Extractor
	scorer    *attendance.Scorer
	repo      *attendance.Repository
	history   History
	ack       Ack
	cfg       *config.Config
}

func NewService(
	extractor *attendance.Extractor,
	scorer *attendance.Scorer,
	repo *attendance.Repository,
	history History,
	ack Ack,
	cfg *config.Config,
) *Service {
	return &Service{
		extractor: extractor,
		scorer:    scorer,
		repo:      repo,
		history:   history,
		ack:       ack,
		cfg:       cfg,
	}
}

// fatalError помечает ошибку, после которой продолжать прогон
// бессмысленно: запись в базу не прошла, прогресс не сохраняется.
type fatalError struct {
	err error
}

func (f *fatalError) Error() string { return "фатальная ошибка прогона: " + f.err.Error() }
func (f *fatalError) Unwrap() error { return f.err }

// Run выполняет один прогон сбора в окне (after, before).
//
// Ошибка обработки одного канала (история недоступна, транзитный отказ
// справочника) изолируется: логируется с ID канала, сбор продолжается
// со следующего канала; уже записанные события остаются валидными.
// Ошибка записи в базу — фатальна, прогон останавливается.
func (s *Service) Run(ctx context.Context, after, before time.Time, react bool) error {
	log.WithFields(log.Fields{
		"after":  after.Format(time.RFC3339),
		"before": before.Format(time.RFC3339),
		"react":  react,
	}).Info("Прогон сбора запущен")

	total := 0
	for _, ch := range s.cfg.AllChannels() {
		n, err := s.collectChannel(ctx, ch, after, before, react)
		total += n
		if err != nil {
			var fatal *fatalError
			if errors.As(err, &fatal) {
				return fmt.Errorf("канал %d: %w", ch.ID, err)
			}
			log.WithField("channel", ch.ID).WithError(err).Error("Канал пропущен из-за ошибки")
			continue
		}
		log.WithFields(log.Fields{
			"channel":  ch.ID,
			"messages": n,
		}).Info("Канал обработан")
	}

	log.Infof("Прогон завершён: %d %s за окно %s — %s",
		total, common.PluralizeMessages(total),
		after.Format(time.RFC3339), before.Format(time.RFC3339))
	return nil
}

// collectChannel обрабатывает один канал: история → событие → очки →
// запись → реакция. Возвращает число обработанных сообщений.
func (s *Service) collectChannel(ctx context.Context, ch config.Channel, after, before time.Time, react bool) (int, error) {
	messages, err := s.history.ChannelMessages(ctx, ch.ID, after, before)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения истории канала: %w", err)
	}

	n := 0
	for _, msg := range messages {
		var thread []attendance.Message
		if msg.ThreadID != 0 {
			thread, err = s.history.ThreadMessages(ctx, msg.ThreadID)
			if err != nil {
				// Записанные ранее сообщения канала уже сохранены;
				// это сообщение доберёт следующее перекрывающееся окно
				log.WithFields(log.Fields{
					"channel": ch.ID,
					"message": msg.ID,
				}).WithError(err).Warn("Ветка сообщения недоступна, канал прерван")
				return n, fmt.Errorf("ошибка чтения ветки сообщения %d: %w", msg.ID, err)
			}
		}

		event := s.extractor.Extract(ctx, msg, thread)
		if ch.Hidden {
			event.Hidden = 1
		}
		event.Points = s.scorer.Score(event, ch.Points)

		if err := s.repo.UpsertEvent(ctx, event); err != nil {
			return n, &fatalError{err: err}
		}
		n++

		s.markOutcome(ctx, event, react)
	}
	return n, nil
}

// markOutcome ставит реакцию-вердикт на исходное сообщение.
// Отдельная граница ошибок: любой отказ только логируется.
func (s *Service) markOutcome(ctx context.Context, event *attendance.Event, react bool) {
	if !react {
		return
	}
	if err := s.ack.MarkOutcome(ctx, event.ChannelID, event.MessageID, event.Disband == 0); err != nil {
		log.WithFields(log.Fields{
			"channel": event.ChannelID,
			"message": event.MessageID,
		}).WithError(err).Warn("Не удалось поставить реакцию-вердикт")
	}
}
