package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoopmetrics/enrich/pkg/models"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestLedger_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.csv")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	err = l.Record(
		models.Subject{Name: "Alice", Handle: "alice"},
		&models.ScrapeResult{Status: models.StatusBlocked, ProfileURL: "https://www.instagram.com/alice/"},
	)
	if err != nil {
		t.Fatal(err)
	}

	// Reopening must not rewrite the header.
	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	err = l2.Record(
		models.Subject{Name: "Bob"},
		&models.ScrapeResult{
			Status:        models.StatusParseFailed,
			MissingLabels: []string{"Followers", "Posts"},
			ErrorDetail:   "no labels matched",
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "name" || rows[0][4] != "missing_stats" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][2] != "blocked" {
		t.Errorf("reason = %q, want blocked", rows[1][2])
	}
	if rows[2][2] != "parse_failed: no labels matched" {
		t.Errorf("reason = %q", rows[2][2])
	}
	if rows[2][4] != "Followers; Posts" {
		t.Errorf("missing_stats = %q", rows[2][4])
	}
}

func TestLedger_QuotesCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	err = l.Record(
		models.Subject{Name: `Smith, Jr. "Ace"`},
		&models.ScrapeResult{Status: models.StatusNotFound},
	)
	if err != nil {
		t.Fatal(err)
	}

	rows := readRows(t, path)
	if rows[1][0] != `Smith, Jr. "Ace"` {
		t.Errorf("name round-trip = %q", rows[1][0])
	}
}
