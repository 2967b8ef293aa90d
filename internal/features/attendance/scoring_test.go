package attendance

import (
	"testing"
)

func TestScorePriority(t *testing.T) {
	scorer := NewScorer(testConfig())

	tests := []struct {
		name  string
		event Event
		want  int
	}{
		{
			// Слово групп-карт побеждает вес канала
			name:  "групп-карты важнее веса канала",
			event: Event{ChannelID: 102, MessageText: "Идём на карты"},
			want:  2,
		},
		{
			name:  "казна в закрытом канале",
			event: Event{ChannelID: 201, Hidden: 1, MessageText: "собираем казну"},
			want:  15,
		},
		{
			name: "казна в ветке закрытого канала",
			event: Event{
				ChannelID:   201,
				Hidden:      1,
				MessageText: "вечерний сбор",
				BranchMessages: []BranchMessage{
					{MessageID: 1, MessageText: "в казну положил"},
				},
			},
			want: 15,
		},
		{
			// Казна вне закрытой группы не переопределяет вес
			name:  "казна в обычном канале",
			event: Event{ChannelID: 102, MessageText: "собираем казну"},
			want:  5,
		},
		{
			name:  "вес канала из таблицы",
			event: Event{ChannelID: 102, MessageText: "зввз сбор"},
			want:  5,
		},
		{
			name:  "канал вне таблицы — вес оркестратора",
			event: Event{ChannelID: 999, MessageText: "сбор"},
			want:  7,
		},
		{
			// Групп-карты побеждают даже казну в закрытом канале
			name:  "групп-карты важнее казны",
			event: Event{ChannelID: 201, Hidden: 1, MessageText: "карты в казну"},
			want:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Score(&tt.event, 7); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreDisbandedEventStillScored(t *testing.T) {
	scorer := NewScorer(testConfig())

	// Очки считаются и для дизбанднутых событий: исключение из
	// итогов — забота запросов на чтение
	event := Event{ChannelID: 101, Disband: 1, MessageText: "дизбанд"}
	if got := scorer.Score(&event, 3); got != 3 {
		t.Errorf("Score() = %d, want 3", got)
	}
}
