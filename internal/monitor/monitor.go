// Package monitor watches a single wallet's on-chain activity through a
// logs subscription and hands confirmed transactions to a caller-supplied
// handler.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-bot/internal/solana"
)

// ErrSubscriptionClosed is returned by Run when the subscription channel
// closes underneath it, typically because the WebSocket connection
// dropped. The caller decides whether to resubscribe.
var ErrSubscriptionClosed = errors.New("log subscription closed")

// Handler receives each successfully fetched, non-failed transaction that
// mentions the watched wallet. Handlers are invoked serially from the
// monitor goroutine.
type Handler func(ctx context.Context, detail *solana.TransactionDetail)

// Monitor follows one wallet.
type Monitor struct {
	wallet string
	ws     solana.WSClient
	rpc    solana.RPCClient
	handle Handler
	log    *logrus.Entry

	fetchAttempts int
	fetchDelay    time.Duration
}

func New(wallet string, ws solana.WSClient, rpc solana.RPCClient, handle Handler, logger *logrus.Entry) *Monitor {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Monitor{
		wallet:        wallet,
		ws:            ws,
		rpc:           rpc,
		handle:        handle,
		log:           logger.WithField("wallet", wallet),
		fetchAttempts: 3,
		fetchDelay:    500 * time.Millisecond,
	}
}

// Run subscribes to logs mentioning the wallet and processes
// notifications until ctx is cancelled or the subscription closes.
// A closed subscription returns ErrSubscriptionClosed; the monitor never
// resubscribes on its own.
func (m *Monitor) Run(ctx context.Context) error {
	sub, err := m.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{m.wallet}})
	if err != nil {
		return fmt.Errorf("subscribe logs for %s: %w", m.wallet, err)
	}
	m.log.WithField("subscription", sub.ID()).Info("wallet monitor started")

	defer func() {
		unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sub.Unsubscribe(unsubCtx); err != nil {
			m.log.WithError(err).Debug("unsubscribe failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-sub.Notifications():
			if !ok {
				return ErrSubscriptionClosed
			}
			if notif.SubscriptionID != sub.ID() {
				// Stale notification from a previous subscription on the
				// same connection.
				continue
			}
			if notif.Err != nil {
				continue
			}
			m.process(ctx, notif.Signature)
		}
	}
}

func (m *Monitor) process(ctx context.Context, signature string) {
	detail, err := m.fetchTransaction(ctx, signature)
	if err != nil {
		m.log.WithError(err).WithField("signature", signature).Warn("transaction fetch failed")
		return
	}
	if detail == nil {
		m.log.WithField("signature", signature).Debug("transaction not found")
		return
	}
	if detail.Meta != nil && detail.Meta.Failed() {
		return
	}
	m.handle(ctx, detail)
}

// fetchTransaction retries GetTransaction a few times; fresh signatures
// from the log stream are often not yet queryable.
func (m *Monitor) fetchTransaction(ctx context.Context, signature string) (*solana.TransactionDetail, error) {
	var lastErr error
	for attempt := 0; attempt < m.fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.fetchDelay << uint(attempt-1)):
			}
		}
		detail, err := m.rpc.GetTransaction(ctx, signature)
		if err != nil {
			lastErr = err
			continue
		}
		if detail != nil {
			return detail, nil
		}
		lastErr = nil
	}
	return nil, lastErr
}
