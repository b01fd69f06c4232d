// Command bank runs the interactive bank account ledger.
// Accounts live in a JSON state file, transfers are journaled in a write-ahead log.
//
// Usage:
//
//	bank --config config.yaml
//	bank -data accounts.json -journal ./wal/transfers (uses CLI arguments)
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/bank/config"
	"github.com/vadiminshakov/bank/internal/events"
	"github.com/vadiminshakov/bank/internal/ledger"
	"github.com/vadiminshakov/bank/internal/shell"
	"github.com/vadiminshakov/bank/internal/storage/statefile"
	"github.com/vadiminshakov/bank/internal/storage/transfers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Get(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = cfg.LogLevel
	logger, err := logCfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	store, err := statefile.NewStore(cfg.DataFile)
	if err != nil {
		logger.Fatal("failed to open state file", zap.String("path", cfg.DataFile), zap.Error(err))
	}

	journal, err := transfers.NewWALStore(cfg.JournalDir)
	if err != nil {
		logger.Fatal("failed to open transfer journal", zap.String("dir", cfg.JournalDir), zap.Error(err))
	}

	broadcaster := events.NewBroadcaster(64)

	bank, err := ledger.New(logger, store,
		ledger.WithJournal(journal),
		ledger.WithBroadcaster(broadcaster),
		ledger.WithIDLength(cfg.IDLength),
	)
	if err != nil {
		// journal is owned by the ledger only once New succeeds
		closeLogged(logger, "transfer journal", journal)
		logger.Fatal("failed to load ledger", zap.String("path", cfg.DataFile), zap.Error(err))
	}
	defer closeLogged(logger, "ledger", bank)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	changes := broadcaster.Subscribe()
	g.Go(func() error {
		defer broadcaster.Unsubscribe(changes)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-changes:
				logger.Debug("balance changed",
					zap.String("account", e.Account),
					zap.String("kind", e.Kind),
					zap.String("amount", e.Amount),
					zap.String("balance", e.Balance))
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		return shell.New(logger, bank, os.Stdout, cfg.Accessible, cfg.SaveTimeout).Run(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shell stopped", zap.Error(err))
	}
}

// closeLogged closes c and logs a failure instead of dropping it.
func closeLogged(logger *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+name, zap.Error(err))
	}
}
