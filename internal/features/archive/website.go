// Package archive — website.go: управление доступностью витрины.
//
// Витрина — отдельный процесс под pm2, который читает флаг
// TECHNICAL_TIMEOUT из своего .env: «1» — страница техработ,
// «0» — обычный режим. Переключение — перезапись флага и перезапуск
// процесса pm2.
package archive

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Availability — внешняя доступность витрины на время техработ.
type Availability interface {
	// Close включает режим техработ.
	Close() error
	// Open выключает режим техработ.
	Open() error
}

// Website управляет витриной через её .env и pm2.
type Website struct {
	envPath string
	pm2Name string
}

func NewWebsite(envPath, pm2Name string) *Website {
	return &Website{envPath: envPath, pm2Name: pm2Name}
}

func (w *Website) Close() error {
	return w.setTechnicalTimeout("1")
}

func (w *Website) Open() error {
	return w.setTechnicalTimeout("0")
}

// setTechnicalTimeout перезаписывает флаг TECHNICAL_TIMEOUT в .env
// витрины и перезапускает её процесс pm2. Прежние строки с флагом
// вычищаются, чтобы файл не рос от переключений.
func (w *Website) setTechnicalTimeout(value string) error {
	content, err := os.ReadFile(w.envPath)
	if err != nil {
		return fmt.Errorf("ошибка чтения %s: %w", w.envPath, err)
	}

	var kept []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "TECHNICAL_TIMEOUT") {
			continue
		}
		kept = append(kept, line)
	}
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	kept = append(kept, fmt.Sprintf("TECHNICAL_TIMEOUT='%s'", value), "")

	if err := os.WriteFile(w.envPath, []byte(strings.Join(kept, "\n")), 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", w.envPath, err)
	}

	out, err := exec.Command("pm2", "restart", w.pm2Name).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ошибка перезапуска pm2 %s: %w (%s)", w.pm2Name, err, strings.TrimSpace(string(out)))
	}
	log.WithFields(log.Fields{
		"pm2":     w.pm2Name,
		"timeout": value,
	}).Info("Витрина переключена")
	return nil
}
