// Package attendance — scoring.go: начисление очков событию.
//
// Правила проверяются в строгом порядке приоритета; побеждает первое
// совпавшее. Переопределения по ключевым словам стоят выше табличных
// весов, потому что один канал может принимать разные виды контента.
package attendance

import (
	"strings"

	"sengoku.gg/attendance-bot/internal/config"
)

// Scorer начисляет очки событиям.
type Scorer struct {
	cfg           *config.Config
	channelPoints map[int64]int
}

func NewScorer(cfg *config.Config) *Scorer {
	points := make(map[int64]int)
	for _, ch := range cfg.AllChannels() {
		points[ch.ID] = ch.Points
	}
	return &Scorer{cfg: cfg, channelPoints: points}
}

// Score возвращает число очков за событие.
//
// Приоритет правил:
//  1. слово «групповых карт» в тексте → фиксированные очки групп-карт,
//     все остальные правила не проверяются;
//  2. событие из закрытой группы И слово «казны» в тексте или где-либо
//     в ветке → фиксированные очки казны. Обход ветки линейный по её
//     длине — ветки короткие;
//  3. вес канала из конфигурации, иначе defaultPoints, переданный
//     оркестратором для этого канала.
//
// Очки считаются независимо от дизбанда: в итогах дизбанднутые события
// отсекаются фильтром на чтении.
func (s *Scorer) Score(e *Event, defaultPoints int) int {
	text := strings.ToLower(e.MessageText)

	for _, w := range s.cfg.GroupMapWords {
		if strings.Contains(text, w) {
			return s.cfg.GroupMapPoints
		}
	}

	if e.Hidden == 1 && s.mentionsTreasury(e) {
		return s.cfg.TreasuryPoints
	}

	if points, ok := s.channelPoints[e.ChannelID]; ok {
		return points
	}
	return defaultPoints
}

// mentionsTreasury ищет слово «казны» в тексте события или в любом
// сообщении его ветки.
func (s *Scorer) mentionsTreasury(e *Event) bool {
	if containsAny(strings.ToLower(e.MessageText), s.cfg.TreasuryWords) {
		return true
	}
	for _, bm := range e.BranchMessages {
		if containsAny(strings.ToLower(bm.MessageText), s.cfg.TreasuryWords) {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
