// Package main runs the copy-trading service: wallet monitors, the copy
// pipeline and the HTTP control API in one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-bot/internal/api"
	"solana-copy-bot/internal/bot"
	"solana-copy-bot/internal/config"
	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/executor"
	"solana-copy-bot/internal/logging"
	"solana-copy-bot/internal/policy"
	"solana-copy-bot/internal/solana"
	"solana-copy-bot/internal/storage"
	"solana-copy-bot/internal/storage/memory"
	pgstore "solana-copy-bot/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	log := logger.WithField("component", "server")

	if cfg.Bot.PrivateKey == "" {
		return errors.New("bot.private_key is required (COPYBOT_BOT_PRIVATE_KEY)")
	}
	signer, err := executor.KeypairFromBase58(cfg.Bot.PrivateKey)
	if err != nil {
		return fmt.Errorf("parse operator keypair: %w", err)
	}
	log.WithField("operator", signer.PublicKey().String()).Info("operator keypair loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
		solana.WithTimeout(time.Duration(cfg.Solana.RequestTimeoutMs)*time.Millisecond),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
	)

	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSURL, nil, logger)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	store, cleanup, err := buildWalletStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := seedWallets(ctx, store, cfg, log); err != nil {
		return err
	}

	manager := bot.New(bot.Options{
		RPC:             rpc,
		WS:              ws,
		Store:           store,
		Evaluator:       policy.NewEvaluator(cfg.Copy.MinAmountSOL, cfg.Copy.FailClosedUnknownAmount),
		Executor:        executor.NewExecutor(rpc, signer, logger.WithField("component", "executor")),
		OperatorAddress: signer.PublicKey().String(),
		HistorySize:     cfg.Bot.HistorySize,
		Logger:          logger.WithField("component", "bot"),
	})

	if cfg.Bot.AutoStart {
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("auto start: %w", err)
		}
	}

	router := api.NewRouter(manager, logger.WithField("component", "api"))
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := manager.Stop(shutdownCtx); err != nil && !errors.Is(err, bot.ErrNotRunning) {
		log.WithError(err).Warn("bot stop failed")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// buildWalletStore selects Postgres when a DSN is configured, otherwise
// an in-memory store.
func buildWalletStore(ctx context.Context, cfg config.StorageConfig) (storage.WalletStore, func(), error) {
	if cfg.PostgresDSN == "" {
		return memory.NewWalletStore(), func() {}, nil
	}
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	store, err := pgstore.NewWalletStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// seedWallets inserts the configured target wallets with the configured
// copy defaults. Wallets already present keep their stored policy.
func seedWallets(ctx context.Context, store storage.WalletStore, cfg *config.Config, log *logrus.Entry) error {
	for _, address := range cfg.Bot.TargetWallets {
		maxAmount := cfg.Copy.MaxAmountSOL
		w := &domain.WalletPolicy{
			Address:   address,
			Enabled:   true,
			CopySOL:   cfg.Copy.CopySOLTransfers,
			CopySPL:   cfg.Copy.CopySPLTransfers,
			CopySwaps: cfg.Copy.CopySwaps,
			MaxAmount: &maxAmount,
		}
		err := store.Insert(ctx, w)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed wallet %s: %w", address, err)
		}
		log.WithField("wallet", address).Info("seeded target wallet")
	}
	return nil
}
