// Package archive — service.go: месячное закрытие и архивирование.
//
// Жизненный цикл: закрыть витрину → молча пересчитать прошедший месяц →
// скопировать живую базу в датированный архив → сбросить живую базу →
// открыть витрину. Пересчёт гарантирует, что архив отражает финальное
// состояние месяца, даже если веса каналов менялись задним числом.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/db/sqlite"
)

// Recomputer — прогон сбора за заданное окно (оркестратор).
type Recomputer interface {
	Run(ctx context.Context, after, before time.Time, react bool) error
}

// Service выполняет месячное закрытие.
type Service struct {
	collector  Recomputer
	store      *sqlite.Store
	website    Availability
	archiveDir string
}

func NewService(collector Recomputer, store *sqlite.Store, website Availability, archiveDir string) *Service {
	return &Service{
		collector:  collector,
		store:      store,
		website:    website,
		archiveDir: archiveDir,
	}
}

// Run закрывает месяц, в котором лежит asOf.
//
// asOf передаётся явно (обычно «вчера» от момента запуска по cron
// первого числа) — никакой глобальной «сегодняшней даты», чтобы
// закрытие исторического месяца было воспроизводимым.
//
// Коллизия архива (файл месяца уже существует) фатальна для этого
// запуска: живая база НЕ удаляется. Витрина при этом всё равно
// открывается обратно — повторный запуск не повод держать её
// на техработах.
func (s *Service) Run(ctx context.Context, asOf time.Time) (err error) {
	log.WithField("month", common.ArchiveFileName(asOf)).Info("Месячное закрытие запущено")

	if err := s.website.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия витрины: %w", err)
	}
	// Витрина открывается обратно на любом исходе после закрытия.
	defer func() {
		if openErr := s.website.Open(); openErr != nil {
			log.WithError(openErr).Error("Не удалось открыть витрину после закрытия месяца")
			if err == nil {
				err = fmt.Errorf("ошибка открытия витрины: %w", openErr)
			}
		}
	}()

	after, before := common.MonthWindow(asOf)
	if err := s.collector.Run(ctx, after, before, false); err != nil {
		return fmt.Errorf("ошибка пересчёта месяца: %w", err)
	}

	if err := s.moveToArchive(ctx, asOf); err != nil {
		return err
	}

	log.WithField("month", common.ArchiveFileName(asOf)).Info("Месячное закрытие завершено")
	return nil
}

// moveToArchive копирует живую базу в датированный архив и сбрасывает её.
// Порядок защитный: сначала проверка коллизии, затем копия, и только
// после удачной копии — удаление живого файла.
func (s *Service) moveToArchive(ctx context.Context, asOf time.Time) error {
	if _, err := os.Stat(s.store.Path()); err != nil {
		return fmt.Errorf("%s: %w", s.store.Path(), common.ErrStoreMissing)
	}
	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога архивов: %w", err)
	}

	archivePath := filepath.Join(s.archiveDir, common.ArchiveFileName(asOf))
	if _, err := os.Stat(archivePath); err == nil {
		// Скорее всего задача запустилась дважды за месяц.
		return fmt.Errorf("%s: %w", archivePath, common.ErrArchiveExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка проверки архива %s: %w", archivePath, err)
	}

	if err := copyFile(s.store.Path(), archivePath); err != nil {
		return fmt.Errorf("ошибка копирования в архив: %w", err)
	}
	log.WithField("archive", archivePath).Info("Архив месяца создан")

	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
