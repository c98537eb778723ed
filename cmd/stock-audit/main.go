// Command stock-audit replays the stock journal of every product and reports products whose
// stock_quantity disagrees with it. It never writes. Exit status 1 means discrepancies were found,
// 2 means the audit could not run.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"stockledger/internal/repository"
	"stockledger/internal/service"
	"stockledger/pkg/config"
	"stockledger/pkg/database"
	"stockledger/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the audit after this long")
	flag.Parse()

	logger.Init("stock-audit", true)

	db, err := database.ConnectDB(config.LoadDatabase())
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Database unavailable")
		return 2
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ledger := service.NewLedgerService(db, repository.NewProductRepo(db), repository.NewTransactionRepo(db))
	return audit(ctx, ledger, os.Stdout)
}

// audit prints a table of drifted products to out and returns the exit status.
func audit(ctx context.Context, ledger service.LedgerService, out io.Writer) int {
	discrepancies, err := ledger.Audit(ctx)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Audit failed")
		return 2
	}

	if len(discrepancies) == 0 {
		logger.Logger.Info().Msg("Stock counters match the journal")
		return 0
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT ID\tSKU\tNAME\tSTOCK\tJOURNAL\tDIFF")
	for _, d := range discrepancies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%+d\n",
			d.ProductID, d.SKU, d.Name, d.StockQuantity, d.JournalTotal, int64(d.StockQuantity)-d.JournalTotal)
	}
	w.Flush()

	logger.Logger.Warn().Int("count", len(discrepancies)).Msg("Stock counters disagree with the journal")
	return 1
}
