package roster

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"sengoku.gg/attendance-bot/internal/common"
	"sengoku.gg/attendance-bot/internal/config"
	"sengoku.gg/attendance-bot/internal/db/sqlite"
)

const testGuildID int64 = 1355240968621658242

// fakeDirectory — справочник участников для тестов.
type fakeDirectory struct {
	members     map[int64]*Member
	globalNames map[int64]string
	memberCalls int
}

func (f *fakeDirectory) Member(_ context.Context, _, userID int64) (*Member, error) {
	f.memberCalls++
	if m, ok := f.members[userID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("uid=%d: %w", userID, common.ErrMemberNotFound)
}

func (f *fakeDirectory) GlobalName(_ context.Context, userID int64) (string, error) {
	if name, ok := f.globalNames[userID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("uid=%d: %w", userID, common.ErrMemberNotFound)
}

func (f *fakeDirectory) Members(_ context.Context, _ int64) ([]Member, error) {
	var out []Member
	for _, m := range f.members {
		out = append(out, *m)
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		GuildID:  testGuildID,
		MinUsers: 4,
		AdminRoles: []config.RoleTier{
			{Name: "Rentor", Tier: 0},
			{Name: "Officer", Tier: 2},
			{Name: "Mentor", Tier: 3},
			{Name: "Recruiter", Tier: 4},
		},
	}
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(t *testing.T, dir *fakeDirectory) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(newTestStore(t))
	return NewService(repo, dir, testConfig()), repo
}

func TestResolveFreshMember(t *testing.T) {
	joined := time.Date(2026, time.March, 22, 0, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{members: map[int64]*Member{
		42: {UserID: 42, DisplayName: "Клинок", GlobalName: "blade", Roles: []string{"Boец"}, JoinedAt: &joined},
	}}
	svc, _ := newTestService(t, dir)

	u := svc.ResolveFresh(context.Background(), testGuildID, 42)

	if u.IsMember != 1 {
		t.Errorf("IsMember = %d, want 1", u.IsMember)
	}
	if u.Liable != 1 {
		t.Errorf("Liable = %d, want 1 (роль вне таблицы)", u.Liable)
	}
	// 10 дней до конца марта → floor(10 * 1.5) = 15
	if u.NeedToGet != 15 {
		t.Errorf("NeedToGet = %d, want 15", u.NeedToGet)
	}
	if u.DisplayName() != "Клинок" {
		t.Errorf("DisplayName = %q, want %q", u.DisplayName(), "Клинок")
	}
}

func TestNeedToGetCap(t *testing.T) {
	// Вступление 1 января: 31 день * 1.5 = 46 → потолок 45
	joined := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{members: map[int64]*Member{
		7: {UserID: 7, DisplayName: "n", JoinedAt: &joined},
	}}
	svc, _ := newTestService(t, dir)

	if u := svc.ResolveFresh(context.Background(), testGuildID, 7); u.NeedToGet != 45 {
		t.Errorf("NeedToGet = %d, want 45", u.NeedToGet)
	}
}

func TestNeedToGetWithoutJoinDate(t *testing.T) {
	dir := &fakeDirectory{members: map[int64]*Member{
		7: {UserID: 7, DisplayName: "n"},
	}}
	svc, _ := newTestService(t, dir)

	if u := svc.ResolveFresh(context.Background(), testGuildID, 7); u.NeedToGet != 45 {
		t.Errorf("NeedToGet = %d, want 45", u.NeedToGet)
	}
}

func TestLiabilityTierPriority(t *testing.T) {
	dir := &fakeDirectory{members: map[int64]*Member{
		// Офицер И ментор: побеждает Officer — он раньше в таблице
		1: {UserID: 1, DisplayName: "a", Roles: []string{"Mentor", "Officer"}},
		// Rentor — освобождён
		2: {UserID: 2, DisplayName: "b", Roles: []string{"Rentor", "Officer"}},
	}}
	svc, _ := newTestService(t, dir)
	ctx := context.Background()

	if u := svc.ResolveFresh(ctx, testGuildID, 1); u.Liable != 2 {
		t.Errorf("Liable = %d, want 2 (Officer раньше Mentor)", u.Liable)
	}
	if u := svc.ResolveFresh(ctx, testGuildID, 2); u.Liable != 0 {
		t.Errorf("Liable = %d, want 0 (Rentor освобождён)", u.Liable)
	}
}

func TestResolveFreshFallback(t *testing.T) {
	dir := &fakeDirectory{globalNames: map[int64]string{99: "ghost"}}
	svc, _ := newTestService(t, dir)

	u := svc.ResolveFresh(context.Background(), testGuildID, 99)

	if u.IsMember != 0 {
		t.Errorf("IsMember = %d, want 0", u.IsMember)
	}
	if u.NeedToGet != 0 {
		t.Errorf("NeedToGet = %d, want 0", u.NeedToGet)
	}
	if u.Liable != 1 {
		t.Errorf("Liable = %d, want 1", u.Liable)
	}
	if u.DisplayName() != "ghost" {
		t.Errorf("DisplayName = %q, want %q", u.DisplayName(), "ghost")
	}
}

func TestResolveFreshTotalFailure(t *testing.T) {
	// Справочник вообще ничего не знает — разрешение всё равно
	// возвращает запись, сбор не должен падать.
	svc, _ := newTestService(t, &fakeDirectory{})

	u := svc.ResolveFresh(context.Background(), testGuildID, 5)
	if u == nil {
		t.Fatal("ResolveFresh вернул nil")
	}
	if u.DisplayName() != "—" {
		t.Errorf("DisplayName = %q, want %q", u.DisplayName(), "—")
	}
}

func TestResolveCachedSkipsDirectory(t *testing.T) {
	dir := &fakeDirectory{}
	svc, repo := newTestService(t, dir)
	ctx := context.Background()

	name := "cached"
	if err := repo.Upsert(ctx, &User{UID: 10, ServerUsername: &name, Liable: 1, Visible: 1, NeedToGet: 30, IsMember: 1}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	u := svc.ResolveCached(ctx, testGuildID, 10)
	if dir.memberCalls != 0 {
		t.Errorf("справочник вызван %d раз, want 0", dir.memberCalls)
	}
	if u.NeedToGet != 30 {
		t.Errorf("NeedToGet = %d, want 30 (кэш не должен пересчитываться)", u.NeedToGet)
	}
}

func TestRefreshAll(t *testing.T) {
	joined := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{members: map[int64]*Member{
		1: {UserID: 1, DisplayName: "один", JoinedAt: &joined},
		2: {UserID: 2, DisplayName: "два", Roles: []string{"Recruiter"}},
	}}
	svc, repo := newTestService(t, dir)
	ctx := context.Background()

	if err := svc.RefreshAll(ctx, testGuildID); err != nil {
		t.Fatalf("RefreshAll() error: %v", err)
	}

	u, err := repo.GetByUID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByUID() error: %v", err)
	}
	if u.Liable != 4 {
		t.Errorf("Liable = %d, want 4", u.Liable)
	}
}
