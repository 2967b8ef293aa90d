// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
//
// Списки и таблицы (каналы, ключевые слова, роли) приходят строками
// и разбираются вручную после envconfig.Process — порядок элементов
// в строке значим и сохраняется.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Channel описывает один отслеживаемый канал: его ID и базовый вес
// очков за проведённый контент. Hidden помечает каналы закрытой
// группы — их события скрываются на витрине и участвуют в правиле
// «казны» при подсчёте очков.
type Channel struct {
	ID     int64
	Points int
	Hidden bool
}

// RoleTier — пара «имя админ-роли → уровень ответственности».
// Таблица ролей упорядочена по приоритету: при нескольких ролях
// у участника побеждает первая совпавшая.
type RoleTier struct {
	Name string
	Tier int
}

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Discord ---
	DiscordToken string `envconfig:"DISCORD_TOKEN" required:"true"`
	GuildID      int64  `envconfig:"DISCORD_GUILD_ID" required:"true"`

	// --- База данных ---
	DBPath     string `envconfig:"DB_PATH" default:"sengoku_bot.db"`
	ArchiveDir string `envconfig:"ARCHIVE_DIR" default:"archives"`

	// --- Окно сбора ---
	// Явные границы окна (RFC 3339). Если заданы — имеют приоритет
	// над скользящим окном FROM_HOURS/TO_HOURS.
	WindowAfterRaw  string `envconfig:"SENGOKU_AFTER"`
	WindowBeforeRaw string `envconfig:"SENGOKU_BEFORE"`
	// Скользящее окно: [now − FROM_HOURS, now − TO_HOURS].
	// Зазор в TO_HOURS нужен, чтобы сообщения попадали в скан уже
	// после того, как улеглись правки и удаления.
	FromHours int `envconfig:"FROM_HOURS" default:"26"`
	ToHours   int `envconfig:"TO_HOURS" default:"23"`

	// --- Реакции ---
	// Ставить ли на исходное сообщение реакцию-вердикт (✅/❌).
	// Побочный эффект best-effort: его отказ не влияет на сбор.
	ReactToMessages bool `envconfig:"REACT_TO_MESSAGES" default:"true"`

	// --- Правила подсчёта ---
	MinUsers       int `envconfig:"MIN_USERS" default:"4"`
	TreasuryPoints int `envconfig:"TREASURY_POINTS" default:"15"`
	GroupMapPoints int `envconfig:"GROUP_MAP_POINTS" default:"2"`

	// --- Каналы ---
	// Формат: "id:вес,id:вес,..." — порядок обхода сохраняется.
	ChannelsRaw       string `envconfig:"CHANNELS" required:"true"`
	HiddenChannelsRaw string `envconfig:"HIDDEN_CHANNELS"`
	Channels          []Channel `envconfig:"-"` // заполним вручную
	HiddenChannels    []Channel `envconfig:"-"`

	// --- Ключевые слова ---
	DisbandWordsRaw  string `envconfig:"DISBAND_WORDS" default:"дизбанд,диз,disband,dis"`
	TreasuryWordsRaw string `envconfig:"TREASURY_WORDS" default:"казну,казна"`
	GroupMapWordsRaw string `envconfig:"GROUP_MAP_WORDS" default:"группики,групики,карты"`
	DisbandWords     []string `envconfig:"-"`
	TreasuryWords    []string `envconfig:"-"`
	GroupMapWords    []string `envconfig:"-"`

	// --- Роли ---
	// Формат: "Имя:уровень,..." — порядок задаёт приоритет.
	// Уровень 0 — полное освобождение от нормы.
	AdminRolesRaw string `envconfig:"ADMIN_ROLES" default:"Rentor:0,Officer:2,Mentor:3,Recruiter:4"`
	AdminRoles    []RoleTier `envconfig:"-"`

	// --- Сайт (витрина) ---
	WebsiteEnvPath string `envconfig:"WEBSITE_ENV_PATH" default:".env"`
	PM2WebsiteName string `envconfig:"PM2_WEBSITE_NAME" default:"sengoku-website"`

	// --- Расписание ---
	CollectCron  string `envconfig:"COLLECT_CRON" default:"0 */3 * * *"`
	SyncCron     string `envconfig:"SYNC_CRON" default:"0 4 * * *"`
	RolloverCron string `envconfig:"ROLLOVER_CRON" default:"0 0 1 * *"`

	// --- Application ---
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	var err error
	if cfg.Channels, err = parseChannels(cfg.ChannelsRaw, false); err != nil {
		return nil, fmt.Errorf("CHANNELS parse: %w", err)
	}
	if cfg.HiddenChannels, err = parseChannels(cfg.HiddenChannelsRaw, true); err != nil {
		return nil, fmt.Errorf("HIDDEN_CHANNELS parse: %w", err)
	}
	if cfg.AdminRoles, err = parseRoleTiers(cfg.AdminRolesRaw); err != nil {
		return nil, fmt.Errorf("ADMIN_ROLES parse: %w", err)
	}
	cfg.DisbandWords = parseWordsCSV(cfg.DisbandWordsRaw)
	cfg.TreasuryWords = parseWordsCSV(cfg.TreasuryWordsRaw)
	cfg.GroupMapWords = parseWordsCSV(cfg.GroupMapWordsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.GuildID == 0 {
		return fmt.Errorf("DISCORD_GUILD_ID не задан или равен 0")
	}
	if len(c.Channels) == 0 && len(c.HiddenChannels) == 0 {
		return fmt.Errorf("не задан ни один канал для сбора")
	}
	if c.FromHours <= c.ToHours {
		return fmt.Errorf("FROM_HOURS должен быть больше TO_HOURS (окно пустое)")
	}
	if c.MinUsers <= 0 {
		return fmt.Errorf("MIN_USERS должен быть > 0")
	}
	if _, _, err := c.windowOverride(); err != nil {
		return err
	}
	return nil
}

// AllChannels возвращает обычные и закрытые каналы в порядке обхода:
// сначала обычная группа, затем закрытая.
func (c *Config) AllChannels() []Channel {
	out := make([]Channel, 0, len(c.Channels)+len(c.HiddenChannels))
	out = append(out, c.Channels...)
	return append(out, c.HiddenChannels...)
}

// ResolveWindow вычисляет окно сбора относительно момента now.
// Явные границы из окружения имеют приоритет; иначе берётся
// скользящее окно [now − FROM_HOURS, now − TO_HOURS].
func (c *Config) ResolveWindow(now time.Time) (after, before time.Time) {
	a, b, err := c.windowOverride()
	if err == nil && a != nil && b != nil {
		return *a, *b
	}
	return now.Add(-time.Duration(c.FromHours) * time.Hour),
		now.Add(-time.Duration(c.ToHours) * time.Hour)
}

// windowOverride разбирает явные границы окна. Обе переменные либо
// заданы корректно, либо override не применяется.
func (c *Config) windowOverride() (after, before *time.Time, err error) {
	if c.WindowAfterRaw == "" || c.WindowBeforeRaw == "" {
		return nil, nil, nil
	}
	a, err := time.Parse(time.RFC3339, c.WindowAfterRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("SENGOKU_AFTER: некорректная дата %q: %w", c.WindowAfterRaw, err)
	}
	b, err := time.Parse(time.RFC3339, c.WindowBeforeRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("SENGOKU_BEFORE: некорректная дата %q: %w", c.WindowBeforeRaw, err)
	}
	return &a, &b, nil
}

// parseChannels разбирает строку вида "id:вес,id:вес" в упорядоченный
// список каналов.
func parseChannels(s string, hidden bool) ([]Channel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Channel, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idRaw, pointsRaw, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("ожидается \"id:вес\", получено %q", p)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idRaw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный ID канала %q: %w", idRaw, err)
		}
		points, err := strconv.Atoi(strings.TrimSpace(pointsRaw))
		if err != nil {
			return nil, fmt.Errorf("некорректный вес канала %q: %w", pointsRaw, err)
		}
		out = append(out, Channel{ID: id, Points: points, Hidden: hidden})
	}
	return out, nil
}

// parseRoleTiers разбирает таблицу "Роль:уровень,..." с сохранением порядка.
func parseRoleTiers(s string) ([]RoleTier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]RoleTier, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, tierRaw, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("ожидается \"Роль:уровень\", получено %q", p)
		}
		tier, err := strconv.Atoi(strings.TrimSpace(tierRaw))
		if err != nil {
			return nil, fmt.Errorf("некорректный уровень роли %q: %w", tierRaw, err)
		}
		out = append(out, RoleTier{Name: strings.TrimSpace(name), Tier: tier})
	}
	return out, nil
}

// parseWordsCSV разбирает список ключевых слов, приводя их к нижнему
// регистру — все проверки текста регистронезависимы.
func parseWordsCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
