// Package roster — service.go содержит логику разрешения участников.
//
// Разрешение двухрежимное:
//   - ResolveCached — чтение через кэш (строка в USERS), режим по умолчанию
//     при сборе событий: один и тот же участник за прогон разрешается один раз;
//   - ResolveFresh — принудительный запрос к справочнику участников,
//     используется ежедневной синхронизацией состава.
//
// Разрешение НИКОГДА не возвращает ошибку: при любом отказе справочника
// возвращается деградированная запись (не участник, норма 0), чтобы сбор
// событий продолжался.
package roster

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/config"
)

// Максимальная месячная норма очков.
const maxNeedToGet = 45

// Множитель нормы: полтора очка за каждый день до конца месяца вступления.
const needToGetPerDay = 1.5

// Member — участник гильдии, каким его видит внешний справочник.
type Member struct {
	UserID      int64
	DisplayName string     // Ник на сервере
	GlobalName  string     // Глобальное имя профиля
	Roles       []string   // ИМЕНА ролей (не ID)
	JoinedAt    *time.Time // Дата вступления в гильдию
}

// Directory — внешний справочник участников (Discord).
// Member возвращает common.ErrMemberNotFound, если пользователь
// не состоит в гильдии либо запрос запрещён.
type Directory interface {
	Member(ctx context.Context, guildID, userID int64) (*Member, error)
	GlobalName(ctx context.Context, userID int64) (string, error)
	Members(ctx context.Context, guildID int64) ([]Member, error)
}

// Service разрешает Discord-ID в записи пользователей.
type Service struct {
	repo      *Repository
	directory Directory
	cfg       *config.Config
}

func NewService(repo *Repository, directory Directory, cfg *config.Config) *Service {
	return &Service{repo: repo, directory: directory, cfg: cfg}
}

// ResolveCached возвращает пользователя из базы, если он там уже есть,
// иначе разрешает свежим запросом к справочнику. Кэш намеренно
// не обновляется — повторное разрешение выполняет только
// синхронизация состава (RefreshAll).
func (s *Service) ResolveCached(ctx context.Context, guildID, uid int64) *User {
	cached, err := s.repo.GetByUID(ctx, uid)
	if err == nil {
		return cached
	}
	return s.ResolveFresh(ctx, guildID, uid)
}

// ResolveFresh запрашивает справочник и строит запись пользователя заново.
// При недоступности справочника возвращает деградированную запись:
// не участник, норма 0, обычный уровень ответственности.
func (s *Service) ResolveFresh(ctx context.Context, guildID, uid int64) *User {
	member, err := s.directory.Member(ctx, guildID, uid)
	if err != nil {
		log.WithFields(log.Fields{
			"uid":   uid,
			"guild": guildID,
		}).WithError(err).Debug("Участник не разрешён через гильдию, откат на глобальный профиль")
		return s.fallbackUser(ctx, uid)
	}
	return s.userFromMember(member)
}

// RefreshAll — синхронизация состава: проходит всех участников гильдии
// через справочник и перезаписывает их строки в USERS. Ошибки по
// отдельным участникам логируются и пропускаются.
func (s *Service) RefreshAll(ctx context.Context, guildID int64) error {
	members, err := s.directory.Members(ctx, guildID)
	if err != nil {
		return err
	}

	updated := 0
	for i := range members {
		u := s.userFromMember(&members[i])
		if err := s.repo.Upsert(ctx, u); err != nil {
			log.WithField("uid", u.UID).WithError(err).Error("Не удалось обновить участника")
			continue
		}
		updated++
	}

	log.WithFields(log.Fields{
		"guild":   guildID,
		"updated": updated,
		"total":   len(members),
	}).Info("Синхронизация состава завершена")
	return nil
}

// userFromMember строит полноценную запись по данным живого членства.
func (s *Service) userFromMember(m *Member) *User {
	u := &User{
		UID:       m.UserID,
		Liable:    s.liabilityTier(m.Roles),
		Visible:   1,
		IsMember:  1,
		NeedToGet: s.needToGet(m.JoinedAt),
		JoinDate:  m.JoinedAt,
	}
	if m.DisplayName != "" {
		u.ServerUsername = &m.DisplayName
	}
	if m.GlobalName != "" {
		u.GlobalUsername = &m.GlobalName
	}
	if len(m.Roles) > 0 {
		roles := strings.Join(m.Roles, ",")
		u.Roles = &roles
	}
	return u
}

// fallbackUser строит деградированную запись для ID, который не удалось
// разрешить в участника гильдии. Глобальное имя подставляется, если
// профиль ещё доступен.
func (s *Service) fallbackUser(ctx context.Context, uid int64) *User {
	u := &User{
		UID:       uid,
		Liable:    1,
		Visible:   1,
		IsMember:  0,
		NeedToGet: 0,
	}
	if name, err := s.directory.GlobalName(ctx, uid); err == nil && name != "" {
		u.GlobalUsername = &name
	}
	return u
}

// liabilityTier возвращает уровень ответственности по именам ролей.
// Таблица ролей упорядочена по приоритету: побеждает ПЕРВАЯ роль
// таблицы, которая есть у участника, а не «лучший» из уровней.
// Без совпадений — обычный уровень 1.
func (s *Service) liabilityTier(roles []string) int {
	for _, rt := range s.cfg.AdminRoles {
		for _, name := range roles {
			if name == rt.Name {
				return rt.Tier
			}
		}
	}
	return 1
}

// needToGet вычисляет месячную норму очков по дате вступления:
// min(45, floor(дней_до_конца_месяца_вступления * 1.5)).
// Дни считаются от даты вступления до конца ЕЁ месяца, а не от
// «сегодня» — норма новичка фиксируется при вступлении.
func (s *Service) needToGet(joined *time.Time) int {
	if joined == nil {
		return maxNeedToGet
	}
	need := int(float64(common.DaysUntilMonthEnd(*joined)) * needToGetPerDay)
	if need > maxNeedToGet {
		return maxNeedToGet
	}
	if need < 0 {
		return 0
	}
	return need
}
