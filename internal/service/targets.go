package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/querydesk/querydesk/internal/report"
)

// TargetSource supplies the per-SPOC targets for the target-vs-achievement
// report.
type TargetSource interface {
	Name() string
	Targets(ctx context.Context) (map[string]float64, error)
}

// MySQLTargets reads the `target` table.
type MySQLTargets struct {
	db *sqlx.DB
}

func NewMySQLTargets(db *sqlx.DB) *MySQLTargets {
	return &MySQLTargets{db: db}
}

func (t *MySQLTargets) Name() string { return "mysql" }

const targetsQuery = "SELECT `spoc_name`, COALESCE(`Target`, 0) AS `target` FROM `target`"

func (t *MySQLTargets) Targets(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		Spoc   string  `db:"spoc_name"`
		Target float64 `db:"target"`
	}
	if err := t.db.SelectContext(ctx, &rows, targetsQuery); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		spoc := strings.TrimSpace(r.Spoc)
		if spoc == "" {
			continue
		}
		out[spoc] += r.Target
	}
	return out, nil
}

// SheetsTargets reads a range of a Google Sheet, e.g. "Target!A:B".
type SheetsTargets struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsTargets authenticates with a service-account file when
// credentialsFile is set and with application default credentials otherwise.
func NewSheetsTargets(ctx context.Context, spreadsheetID, readRange, credentialsFile string, opts ...option.ClientOption) (*SheetsTargets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets targets: spreadsheet id is required")
	}
	if readRange == "" {
		readRange = "Target!A:B"
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService: %w", err)
	}
	return &SheetsTargets{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

func (t *SheetsTargets) Name() string { return "sheets" }

func (t *SheetsTargets) Targets(ctx context.Context) (map[string]float64, error) {
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, t.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", t.readRange, err)
	}
	targets := ParseTargetRows(resp.Values)
	log.Debug().Str("range", t.readRange).Int("spocs", len(targets)).Msg("targets loaded from sheet")
	return targets, nil
}

// ParseTargetRows maps sheet rows to spoc → target. A header row naming
// spoc/spoc_name and target columns selects them; otherwise the first two
// columns are used. Blank names are skipped and unparseable targets count
// as 0.
func ParseTargetRows(values [][]interface{}) map[string]float64 {
	out := map[string]float64{}
	if len(values) == 0 {
		return out
	}

	spocCol, targetCol, start := 0, 1, 0
	if s, tg, ok := headerColumns(values[0]); ok {
		spocCol, targetCol, start = s, tg, 1
	}

	for _, row := range values[start:] {
		if spocCol >= len(row) {
			continue
		}
		spoc := strings.TrimSpace(fmt.Sprint(row[spocCol]))
		if spoc == "" {
			continue
		}
		var target float64
		if targetCol < len(row) {
			target, _ = report.Number(strings.ReplaceAll(fmt.Sprint(row[targetCol]), ",", ""))
		}
		out[spoc] += target
	}
	return out
}

func headerColumns(row []interface{}) (spoc, target int, ok bool) {
	spoc, target = -1, -1
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(fmt.Sprint(cell))) {
		case "spoc", "spoc_name", "spoc name":
			spoc = i
		case "target", "targets":
			target = i
		}
	}
	return spoc, target, spoc >= 0 && target >= 0
}
