package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
)

// Show prints recent stored training-load rows, newest first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	rows, err := store.ListHistory(ctx, a.Config.Load.UserID, opts.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no stored training data found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTSS\tCTL\tATL\tTSB")
	for _, row := range rows {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			row.Date.Format("2006-01-02"),
			row.TSS.StringFixed(1),
			row.CTL.StringFixed(1),
			row.ATL.StringFixed(1),
			row.TSB.StringFixed(1),
		)
	}
	return writer.Flush()
}
