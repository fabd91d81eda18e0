// Package ledger keeps an append-only CSV of subjects whose enrichment did
// not fully succeed, so failed rows can be reviewed or re-run without
// grepping logs.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hoopmetrics/enrich/pkg/models"
)

var header = []string{"name", "instagram", "reason", "url", "missing_stats"}

// Ledger appends failure rows to a CSV file. The header is written only
// when the file is created, so repeated runs keep appending to one file.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// Open prepares a ledger at the given path, creating the file with its
// header if it does not exist yet.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path}

	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return l, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	if err := l.appendRow(header); err != nil {
		return nil, err
	}
	return l, nil
}

// Record appends one failure row.
func (l *Ledger) Record(subject models.Subject, result *models.ScrapeResult) error {
	reason := string(result.Status)
	if result.ErrorDetail != "" {
		reason = fmt.Sprintf("%s: %s", result.Status, result.ErrorDetail)
	}
	return l.appendRow([]string{
		subject.Name,
		subject.Handle,
		reason,
		result.ProfileURL,
		strings.Join(result.MissingLabels, "; "),
	})
}

func (l *Ledger) appendRow(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger row: %w", err)
	}
	return nil
}
