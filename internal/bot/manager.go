// Package bot coordinates wallet monitoring, classification, policy and
// copy execution, and owns all mutable runtime state.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-bot/internal/classify"
	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/executor"
	"solana-copy-bot/internal/monitor"
	"solana-copy-bot/internal/observability"
	"solana-copy-bot/internal/policy"
	"solana-copy-bot/internal/solana"
	"solana-copy-bot/internal/storage"
)

// Lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("bot already running")
	ErrNotRunning     = errors.New("bot not running")
)

const (
	defaultHistorySize = 1000
	defaultSeenLimit   = 4096

	supervisorBackoffMin   = time.Second
	supervisorBackoffMax   = 30 * time.Second
	supervisorStableWindow = time.Minute
)

// Options for creating a Manager.
type Options struct {
	RPC       solana.RPCClient
	WS        solana.WSClient
	Store     storage.WalletStore
	Evaluator *policy.Evaluator
	Executor  *executor.Executor

	// OperatorAddress is the base58 public key the bot trades from.
	OperatorAddress string

	HistorySize int
	SeenLimit   int

	Logger  *logrus.Entry
	Metrics *observability.Metrics
}

// walletRunner is one supervised monitor goroutine.
type walletRunner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the bot lifecycle and all runtime state. A single mutex
// guards every mutable field; it is held only for state updates, never
// across store writes or network calls.
type Manager struct {
	rpc       solana.RPCClient
	ws        solana.WSClient
	store     storage.WalletStore
	evaluator *policy.Evaluator
	executor  *executor.Executor
	operator  string
	seenLimit int
	log       *logrus.Entry
	metrics   *observability.Metrics

	mu        sync.Mutex
	status    domain.BotStatus
	lastError string
	startedAt time.Time
	runCtx    context.Context
	runCancel context.CancelFunc

	wallets map[string]*domain.WalletPolicy
	runners map[string]*walletRunner

	stats     domain.CopyStats
	history   *historyRing
	seen      map[string]struct{}
	seenOrder []string
}

// New creates a stopped Manager.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	historySize := opts.HistorySize
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	seenLimit := opts.SeenLimit
	if seenLimit <= 0 {
		seenLimit = defaultSeenLimit
	}

	return &Manager{
		rpc:       opts.RPC,
		ws:        opts.WS,
		store:     opts.Store,
		evaluator: opts.Evaluator,
		executor:  opts.Executor,
		operator:  opts.OperatorAddress,
		seenLimit: seenLimit,
		log:       logger,
		metrics:   metrics,
		status:    domain.StatusStopped,
		wallets:   make(map[string]*domain.WalletPolicy),
		runners:   make(map[string]*walletRunner),
		history:   newHistoryRing(historySize),
		seen:      make(map[string]struct{}),
	}
}

// Start loads wallet policies from the store and spawns one supervised
// monitor per enabled wallet. Starting an already running manager is an
// error.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	switch m.status {
	case domain.StatusStopped, domain.StatusError:
	default:
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.status = domain.StatusStarting
	m.lastError = ""
	m.mu.Unlock()

	stored, err := m.store.List(ctx)
	if err != nil {
		m.setError(fmt.Errorf("load wallet policies: %w", err))
		return fmt.Errorf("load wallet policies: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range stored {
		policyCopy := *w
		m.wallets[w.Address] = &policyCopy
	}
	m.metrics.WalletsTracked.Set(float64(len(m.wallets)))

	m.runCtx, m.runCancel = context.WithCancel(context.Background())
	for addr, w := range m.wallets {
		if w.Enabled {
			m.startRunnerLocked(addr)
		}
	}

	m.status = domain.StatusRunning
	m.startedAt = time.Now()
	m.log.WithField("wallets", len(m.wallets)).Info("bot started")
	return nil
}

// Stop cancels all monitors and waits for them to exit. Stopping a
// manager that is not running is an error.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.status != domain.StatusRunning && m.status != domain.StatusError {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.status = domain.StatusStopping
	if m.runCancel != nil {
		m.runCancel()
	}
	waiting := make([]*walletRunner, 0, len(m.runners))
	for _, r := range m.runners {
		waiting = append(waiting, r)
	}
	m.runners = make(map[string]*walletRunner)
	m.mu.Unlock()

	for _, r := range waiting {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	m.status = domain.StatusStopped
	m.metrics.ActiveMonitors.Set(0)
	m.mu.Unlock()
	m.log.Info("bot stopped")
	return nil
}

// AddWallet registers a new wallet policy and, when the bot is running
// and the policy is enabled, starts monitoring it immediately.
func (m *Manager) AddWallet(ctx context.Context, w domain.WalletPolicy) error {
	if _, err := executor.PublicKeyFromBase58(w.Address); err != nil {
		return fmt.Errorf("%w: address %q: %v", storage.ErrInvalidInput, w.Address, err)
	}

	m.mu.Lock()
	if _, exists := m.wallets[w.Address]; exists {
		m.mu.Unlock()
		return storage.ErrDuplicateKey
	}
	m.mu.Unlock()

	// The store is the duplicate authority; concurrent adds of the same
	// address race to here and the loser gets ErrDuplicateKey from it.
	if err := m.store.Insert(ctx, &w); err != nil {
		return err
	}

	m.mu.Lock()
	policyCopy := w
	m.wallets[w.Address] = &policyCopy
	m.metrics.WalletsTracked.Set(float64(len(m.wallets)))
	if m.status == domain.StatusRunning && w.Enabled {
		m.startRunnerLocked(w.Address)
	}
	m.mu.Unlock()

	m.log.WithField("wallet", w.Address).Info("wallet added")
	return nil
}

// RemoveWallet stops the wallet's monitor and deletes its policy.
func (m *Manager) RemoveWallet(ctx context.Context, address string) error {
	m.mu.Lock()
	if _, exists := m.wallets[address]; !exists {
		m.mu.Unlock()
		return storage.ErrNotFound
	}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, address); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	m.mu.Lock()
	delete(m.wallets, address)
	runner := m.runners[address]
	delete(m.runners, address)
	if runner != nil {
		runner.cancel()
	}
	m.metrics.WalletsTracked.Set(float64(len(m.wallets)))
	m.metrics.ActiveMonitors.Set(float64(len(m.runners)))
	m.mu.Unlock()

	if runner != nil {
		<-runner.done
	}
	m.log.WithField("wallet", address).Info("wallet removed")
	return nil
}

// UpdateWallet applies a partial patch to a wallet policy. Toggling
// Enabled while running starts or stops that wallet's monitor.
func (m *Manager) UpdateWallet(ctx context.Context, address string, u domain.WalletUpdate) (*domain.WalletPolicy, error) {
	m.mu.Lock()
	current, exists := m.wallets[address]
	if !exists {
		m.mu.Unlock()
		return nil, storage.ErrNotFound
	}
	updated := *current
	updated.Apply(u)
	m.mu.Unlock()

	if err := m.store.Update(ctx, &updated); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, exists := m.wallets[address]; !exists {
		// Removed while the store write was in flight.
		m.mu.Unlock()
		return nil, storage.ErrNotFound
	}
	m.wallets[address] = &updated

	var stopped *walletRunner
	if m.status == domain.StatusRunning {
		runner, active := m.runners[address]
		switch {
		case updated.Enabled && !active:
			m.startRunnerLocked(address)
		case !updated.Enabled && active:
			runner.cancel()
			delete(m.runners, address)
			m.metrics.ActiveMonitors.Set(float64(len(m.runners)))
			stopped = runner
		}
	}
	result := updated
	m.mu.Unlock()

	if stopped != nil {
		<-stopped.done
	}
	return &result, nil
}

// Wallets returns all configured wallet policies, ordered by address.
func (m *Manager) Wallets() []*domain.WalletPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.WalletPolicy, 0, len(m.wallets))
	for _, w := range m.wallets {
		policyCopy := *w
		result = append(result, &policyCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})
	return result
}

// Wallet returns one policy by address.
func (m *Manager) Wallet(address string) (*domain.WalletPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.wallets[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	policyCopy := *w
	return &policyCopy, nil
}

// StatusReport is a point-in-time snapshot of the manager.
type StatusReport struct {
	Status         domain.BotStatus `json:"status"`
	Running        bool             `json:"running"`
	LastError      string           `json:"last_error,omitempty"`
	UptimeSeconds  float64          `json:"uptime_seconds"`
	ActiveMonitors int              `json:"active_monitors"`
	WalletsTracked int              `json:"wallets_tracked"`
	Stats          domain.CopyStats `json:"stats"`
}

// Status returns the current lifecycle snapshot.
func (m *Manager) Status() StatusReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := StatusReport{
		Status:         m.status,
		Running:        m.status == domain.StatusRunning,
		LastError:      m.lastError,
		ActiveMonitors: len(m.runners),
		WalletsTracked: len(m.wallets),
		Stats:          m.stats,
	}
	if m.status == domain.StatusRunning || m.status == domain.StatusError {
		report.UptimeSeconds = time.Since(m.startedAt).Seconds()
	}
	return report
}

// Stats returns a copy of the running counters.
func (m *Manager) Stats() domain.CopyStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// History returns up to limit classified transactions in chronological
// order, offset counting back from the newest entry.
func (m *Manager) History(limit, offset int) []*domain.ClassifiedTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Slice(limit, offset)
}

// HistoryLen returns the number of retained history entries.
func (m *Manager) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Len()
}

// WalletBalance returns the SOL balance of an arbitrary address.
func (m *Manager) WalletBalance(ctx context.Context, address string) (float64, error) {
	lamports, err := m.rpc.GetBalance(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", address, err)
	}
	return float64(lamports) / executor.LamportsPerSOL, nil
}

// OperatorBalance returns the SOL balance of the bot's own wallet.
func (m *Manager) OperatorBalance(ctx context.Context) (float64, error) {
	return m.WalletBalance(ctx, m.operator)
}

// OperatorAddress returns the bot's own wallet address.
func (m *Manager) OperatorAddress() string { return m.operator }

// startRunnerLocked spawns a supervised monitor goroutine. Caller holds
// the mutex with status running (or starting).
func (m *Manager) startRunnerLocked(address string) {
	runCtx, cancel := context.WithCancel(m.runCtx)
	runner := &walletRunner{cancel: cancel, done: make(chan struct{})}
	m.runners[address] = runner
	m.metrics.ActiveMonitors.Set(float64(len(m.runners)))
	go m.superviseWallet(runCtx, address, runner.done)
}

// superviseWallet keeps one wallet monitor alive with bounded
// exponential backoff. A run lasting past the stable window resets the
// backoff. A closed WebSocket client puts the whole manager in the error
// state; there is nothing further to supervise.
func (m *Manager) superviseWallet(ctx context.Context, address string, done chan struct{}) {
	defer close(done)
	log := m.log.WithField("wallet", address)
	backoff := supervisorBackoffMin

	for {
		started := time.Now()
		mon := monitor.New(address, m.ws, m.rpc, func(ctx context.Context, detail *solana.TransactionDetail) {
			m.handleTransaction(ctx, address, detail)
		}, m.log)
		err := mon.Run(ctx)

		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, solana.ErrClientClosed) {
			m.setError(fmt.Errorf("monitor %s: %w", address, err))
			return
		}

		if time.Since(started) >= supervisorStableWindow {
			backoff = supervisorBackoffMin
		}
		log.WithError(err).WithField("backoff", backoff).Warn("wallet monitor exited, restarting")
		m.metrics.MonitorRestarts.Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > supervisorBackoffMax {
			backoff = supervisorBackoffMax
		}
	}
}

// handleTransaction classifies one confirmed transaction, records it,
// and copies it when the wallet's policy allows. Signatures already seen
// are dropped so a transaction is copied at most once even if several
// subscriptions deliver it.
func (m *Manager) handleTransaction(ctx context.Context, address string, detail *solana.TransactionDetail) {
	tx := classify.Classify(detail, address)

	m.mu.Lock()
	if _, dup := m.seen[tx.Signature]; dup {
		m.mu.Unlock()
		m.metrics.NotificationsDropped.Inc()
		return
	}
	m.recordSeenLocked(tx.Signature)
	m.history.Append(tx)
	m.metrics.TransactionsObserved.WithLabelValues(string(tx.Kind)).Inc()

	w := m.wallets[address]
	shouldCopy := m.status == domain.StatusRunning &&
		w != nil && w.Enabled &&
		m.evaluator.IsEligible(tx, *w)
	m.mu.Unlock()

	if !shouldCopy {
		return
	}

	m.metrics.CopiesAttempted.Inc()
	result := m.executor.Execute(ctx, tx, detail)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.stats.TotalTransactionsCopied++
	m.stats.LastActivity = &now
	if result.Succeeded {
		m.stats.SuccessfulCopies++
		m.metrics.CopiesSucceeded.Inc()
		switch tx.Kind {
		case domain.KindSOLTransfer:
			m.stats.SOLTransfersCopied++
		case domain.KindSPLTransfer:
			m.stats.SPLTransfersCopied++
		case domain.KindRaydiumSwap:
			m.stats.SwapsCopied++
		}
		if tx.Amount != nil {
			m.stats.TotalVolumeCopied += *tx.Amount
			m.metrics.CopyVolumeSOL.Add(*tx.Amount)
		}
	} else {
		m.stats.FailedCopies++
		m.metrics.CopiesFailed.Inc()
	}
}

// recordSeenLocked adds a signature to the dedup set, evicting the
// oldest entry once the set is full. Caller holds the mutex.
func (m *Manager) recordSeenLocked(signature string) {
	if len(m.seenOrder) >= m.seenLimit {
		oldest := m.seenOrder[0]
		m.seenOrder = m.seenOrder[1:]
		delete(m.seen, oldest)
	}
	m.seen[signature] = struct{}{}
	m.seenOrder = append(m.seenOrder, signature)
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = domain.StatusError
	m.lastError = err.Error()
	m.log.WithError(err).Error("bot entered error state")
}
