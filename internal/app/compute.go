package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"training-load/internal/storage"
)

// Compute runs the pipeline once and prints the result.
func (a *App) Compute(ctx context.Context, opts ComputeOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; result will not be persisted")
	}
	if closeStore != nil {
		defer closeStore()
	}

	source, err := a.newSource()
	if err != nil {
		return err
	}

	var loadStore storage.LoadStore
	if store != nil {
		loadStore = store
	}

	result, err := a.newService(source, loadStore).Refresh(ctx, opts.Days)
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Fprintln(os.Stdout, result.Message)
		return nil
	}

	fmt.Fprintf(os.Stdout, "CTL %.1f  ATL %.1f  TSB %.1f  trend: %s\n\n",
		result.Summary.CTL, result.Summary.ATL, result.Summary.TSB, result.Summary.Trend)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTSS\tCTL\tATL\tTSB")
	for _, p := range result.History {
		fmt.Fprintf(writer, "%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
			p.Date.Format("2006-01-02"), p.TSS, p.CTL, p.ATL, p.TSB)
	}
	return writer.Flush()
}
