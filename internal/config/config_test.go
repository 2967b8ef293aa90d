package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DISCORD_GUILD_ID", "1355240968621658242")
	t.Setenv("CHANNELS", "101:3,102:5")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HIDDEN_CHANNELS", "201:3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(cfg.Channels))
	}
	if cfg.Channels[0].ID != 101 || cfg.Channels[0].Points != 3 || cfg.Channels[0].Hidden {
		t.Errorf("первый канал разобран неверно: %+v", cfg.Channels[0])
	}
	if cfg.Channels[1].ID != 102 || cfg.Channels[1].Points != 5 {
		t.Errorf("второй канал разобран неверно: %+v", cfg.Channels[1])
	}
	if len(cfg.HiddenChannels) != 1 || !cfg.HiddenChannels[0].Hidden {
		t.Errorf("закрытый канал разобран неверно: %+v", cfg.HiddenChannels)
	}

	// Таблица ролей по умолчанию: порядок — приоритет
	wantRoles := []RoleTier{{"Rentor", 0}, {"Officer", 2}, {"Mentor", 3}, {"Recruiter", 4}}
	if len(cfg.AdminRoles) != len(wantRoles) {
		t.Fatalf("got %d roles, want %d", len(cfg.AdminRoles), len(wantRoles))
	}
	for i, want := range wantRoles {
		if cfg.AdminRoles[i] != want {
			t.Errorf("роль %d = %+v, want %+v", i, cfg.AdminRoles[i], want)
		}
	}

	if len(cfg.DisbandWords) != 4 || cfg.DisbandWords[0] != "дизбанд" {
		t.Errorf("ключевые слова дизбанда разобраны неверно: %v", cfg.DisbandWords)
	}
	if cfg.MinUsers != 4 || cfg.TreasuryPoints != 15 || cfg.GroupMapPoints != 2 {
		t.Errorf("значения по умолчанию неверны: %+v", cfg)
	}
}

func TestAllChannelsOrder(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HIDDEN_CHANNELS", "201:3,202:4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	all := cfg.AllChannels()
	wantIDs := []int64{101, 102, 201, 202}
	if len(all) != len(wantIDs) {
		t.Fatalf("got %d channels, want %d", len(all), len(wantIDs))
	}
	for i, id := range wantIDs {
		if all[i].ID != id {
			t.Errorf("канал %d: ID = %d, want %d", i, all[i].ID, id)
		}
	}
}

func TestResolveWindowRolling(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)
	after, before := cfg.ResolveWindow(now)

	if want := now.Add(-26 * time.Hour); !after.Equal(want) {
		t.Errorf("after = %v, want %v", after, want)
	}
	if want := now.Add(-23 * time.Hour); !before.Equal(want) {
		t.Errorf("before = %v, want %v", before, want)
	}
}

func TestResolveWindowOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SENGOKU_AFTER", "2025-10-01T00:01:00Z")
	t.Setenv("SENGOKU_BEFORE", "2025-10-14T00:01:00Z")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	after, before := cfg.ResolveWindow(time.Now())
	if want := time.Date(2025, time.October, 1, 0, 1, 0, 0, time.UTC); !after.Equal(want) {
		t.Errorf("after = %v, want %v", after, want)
	}
	if want := time.Date(2025, time.October, 14, 0, 1, 0, 0, time.UTC); !before.Equal(want) {
		t.Errorf("before = %v, want %v", before, want)
	}
}

func TestLoadRejectsBadWindow(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SENGOKU_AFTER", "не дата")
	t.Setenv("SENGOKU_BEFORE", "2025-10-14T00:01:00Z")

	if _, err := Load(); err == nil {
		t.Fatal("Load() должен отклонить некорректную дату окна")
	}
}

func TestLoadRejectsEmptyWindowHours(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FROM_HOURS", "23")
	t.Setenv("TO_HOURS", "26")

	if _, err := Load(); err == nil {
		t.Fatal("Load() должен отклонить FROM_HOURS <= TO_HOURS")
	}
}

func TestLoadRejectsBadChannels(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHANNELS", "101")

	if _, err := Load(); err == nil {
		t.Fatal("Load() должен отклонить канал без веса")
	}
}
