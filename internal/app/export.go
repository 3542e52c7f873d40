package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"

	"training-load/internal/chart"
	"training-load/internal/storage"
	"training-load/internal/trainload"
)

// Export renders stored history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxRows = a.Config.ResolveMaxRows(opts.MaxRows)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	rows, err := store.ListHistory(ctx, a.Config.Load.UserID, opts.MaxRows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		a.Logger.Info().Msg("no stored rows to export")
		return nil
	}

	a.Logger.Info().Int("rows", len(rows)).Msg("exporting training load history")

	if opts.CSVPath != "" {
		if err := writeHistoryCSV(opts.CSVPath, rows); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeHistoryPNG(opts.PNGPath, rows); err != nil {
			return err
		}
	}

	return nil
}

func writeHistoryCSV(path string, rows []storage.LoadRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "tss", "ctl", "atl", "tsb"}); err != nil {
		return err
	}

	// Stored rows come newest first; export oldest first.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		record := []string{
			row.Date.Format("2006-01-02"),
			row.TSS.String(),
			row.CTL.String(),
			row.ATL.String(),
			row.TSB.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeHistoryPNG(path string, rows []storage.LoadRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	series := make([]trainload.Point, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		series = append(series, trainload.Point{
			Date: row.Date,
			TSS:  row.TSS.InexactFloat64(),
			CTL:  row.CTL.InexactFloat64(),
			ATL:  row.ATL.InexactFloat64(),
			TSB:  row.TSB.InexactFloat64(),
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return chart.RenderPNG(file, series)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
