package attendance

import (
	"context"
	"testing"
	"time"

	"sengoku.gg/attendance-bot/internal/db/sqlite"
	"sengoku.gg/attendance-bot/internal/features/roster"
)

func newTestRepository(t *testing.T) (*Repository, *sqlite.Store) {
	t.Helper()
	store := newTestStore(t)
	return NewRepository(store, roster.NewRepository(store)), store
}

func testUser(uid int64, name string) *roster.User {
	return &roster.User{UID: uid, ServerUsername: &name, Liable: 1, Visible: 1, NeedToGet: 45, IsMember: 1}
}

func testEvent(messageID int64, author *roster.User) *Event {
	return &Event{
		MessageID:   messageID,
		Author:      author,
		MessageText: "сбор на пве",
		ReadTime:    time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC),
		ChannelID:   101,
		ChannelName: "lfg",
		GuildID:     testGuildID,
		Points:      3,
	}
}

func TestUpsertEventIdempotent(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	author := testUser(42, "организатор")
	event := testEvent(1000, author)
	event.MentionedUsers = []*roster.User{testUser(11, "раз"), testUser(12, "два")}
	event.BranchMessages = []BranchMessage{
		{MessageID: 1001, MessageText: "я иду", ReadTime: event.ReadTime},
	}

	if err := repo.UpsertEvent(ctx, event); err != nil {
		t.Fatalf("UpsertEvent() error: %v", err)
	}

	// Повторный сбор того же сообщения с изменившимися полями
	event.MessageText = "сбор на пве (обновлено)"
	event.Points = 5
	event.Disband = 1
	if err := repo.UpsertEvent(ctx, event); err != nil {
		t.Fatalf("UpsertEvent() повторно: %v", err)
	}

	got, err := repo.GetEvent(ctx, 1000)
	if err != nil {
		t.Fatalf("GetEvent() error: %v", err)
	}
	if got.MessageText != "сбор на пве (обновлено)" || got.Points != 5 || got.Disband != 1 {
		t.Errorf("поля не обновились: %+v", got)
	}
	if got.Author.UID != 42 {
		t.Errorf("Author.UID = %d, want 42", got.Author.UID)
	}

	// Ровно одна строка события и по одной связи на участника
	participants, err := repo.Participants(ctx, 1000)
	if err != nil {
		t.Fatalf("Participants() error: %v", err)
	}
	if len(participants) != 2 {
		t.Errorf("got %d participants, want 2", len(participants))
	}
	branches, err := repo.Branches(ctx, 1000)
	if err != nil {
		t.Fatalf("Branches() error: %v", err)
	}
	if len(branches) != 1 || branches[0].MessageText != "я иду" {
		t.Errorf("ветка не сохранилась: %+v", branches)
	}
}

func TestLeaderboardExcludesDisbanded(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	member := testUser(11, "боец")

	held := testEvent(1000, testUser(42, "организатор"))
	held.Points = 3
	held.MentionedUsers = []*roster.User{member}
	if err := repo.UpsertEvent(ctx, held); err != nil {
		t.Fatalf("UpsertEvent() error: %v", err)
	}

	disbanded := testEvent(2000, testUser(42, "организатор"))
	disbanded.Disband = 1
	disbanded.Points = 5
	disbanded.MentionedUsers = []*roster.User{member}
	if err := repo.UpsertEvent(ctx, disbanded); err != nil {
		t.Fatalf("UpsertEvent() error: %v", err)
	}

	rows, err := repo.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard() error: %v", err)
	}

	var got *LeaderboardRow
	for i := range rows {
		if rows[i].UID == 11 {
			got = &rows[i]
		}
	}
	if got == nil {
		t.Fatal("участник 11 не попал в сводку")
	}
	// Дизбанднутое событие хранится, но в итоги не входит
	if got.EventCount != 1 {
		t.Errorf("EventCount = %d, want 1", got.EventCount)
	}
	if got.TotalPoints != 3 {
		t.Errorf("TotalPoints = %d, want 3", got.TotalPoints)
	}
}

func TestEventsByUserNewestFirst(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	member := testUser(11, "боец")
	for _, id := range []int64{1000, 3000, 2000} {
		e := testEvent(id, testUser(42, "организатор"))
		e.MentionedUsers = []*roster.User{member}
		if err := repo.UpsertEvent(ctx, e); err != nil {
			t.Fatalf("UpsertEvent(%d) error: %v", id, err)
		}
	}

	events, err := repo.EventsByUser(ctx, 11)
	if err != nil {
		t.Fatalf("EventsByUser() error: %v", err)
	}
	wantOrder := []int64{3000, 2000, 1000}
	if len(events) != len(wantOrder) {
		t.Fatalf("got %d events, want %d", len(events), len(wantOrder))
	}
	for i, want := range wantOrder {
		if events[i].MessageID != want {
			t.Errorf("события %d: MessageID = %d, want %d", i, events[i].MessageID, want)
		}
	}
}

func TestUpsertEventWritesMentionedUsers(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	event := testEvent(1000, testUser(42, "организатор"))
	event.MentionedUsers = []*roster.User{testUser(11, "раз"), testUser(12, "два")}
	if err := repo.UpsertEvent(ctx, event); err != nil {
		t.Fatalf("UpsertEvent() error: %v", err)
	}

	users := roster.NewRepository(store)
	for _, uid := range []int64{42, 11, 12} {
		if _, err := users.GetByUID(ctx, uid); err != nil {
			t.Errorf("пользователь %d не записан: %v", uid, err)
		}
	}
}
