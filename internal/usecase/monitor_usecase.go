package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceMonitor keeps one live tick stream per cryptocurrency referenced by an
// active alert. A periodic sync pass compares the set of live streams against
// the symbols the active alerts need, starting streams for new symbols and
// tearing down streams nobody references anymore. Every tick from a live
// stream is checked against the freshly loaded active alerts for that symbol.
type PriceMonitor struct {
	alerts       domain.AlertRepository
	streams      domain.TickStreamFactory
	dispatcher   *Dispatcher
	logger       *zap.Logger
	syncInterval time.Duration

	// mu guards runners and stopping. runners is mutated by the sync pass;
	// stopping entries are cleared by the per-symbol stop goroutines.
	mu       sync.RWMutex
	runners  map[string]*symbolRunner
	stopping map[string]chan struct{}

	priceMu    sync.RWMutex
	lastPrices map[string]decimal.Decimal
}

// symbolRunner is the handle for one symbol's consuming goroutine. done is
// closed only after the goroutine and its stream have fully stopped.
type symbolRunner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPriceMonitor(alerts domain.AlertRepository, streams domain.TickStreamFactory, dispatcher *Dispatcher, syncInterval time.Duration, logger *zap.Logger) *PriceMonitor {
	if syncInterval <= 0 {
		syncInterval = 10 * time.Second
	}
	return &PriceMonitor{
		alerts:       alerts,
		streams:      streams,
		dispatcher:   dispatcher,
		logger:       logger,
		syncInterval: syncInterval,
		runners:      make(map[string]*symbolRunner),
		stopping:     make(map[string]chan struct{}),
		lastPrices:   make(map[string]decimal.Decimal),
	}
}

// Run blocks until ctx is cancelled, syncing subscriptions against the active
// alert set on every interval. All streams are stopped and awaited before Run
// returns.
func (m *PriceMonitor) Run(ctx context.Context) error {
	m.logger.Info("price monitor started", zap.Duration("sync_interval", m.syncInterval))

	ticker := time.NewTicker(m.syncInterval)
	defer ticker.Stop()

	for {
		m.SyncSubscriptions(ctx)

		select {
		case <-ctx.Done():
			m.stopAll()
			m.logger.Info("price monitor stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SyncSubscriptions performs one reconciliation pass. Store errors are logged
// and the pass is abandoned; the next interval retries. Stops run in the
// background and gate only their own symbol: a symbol whose stop is still in
// flight is skipped this pass and restarted on a later one, so it is never
// restarted on top of a half-stopped stream and a slow stop never delays the
// other symbols.
func (m *PriceMonitor) SyncSubscriptions(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	alerts, err := m.alerts.ListActive(ctx)
	if err != nil {
		m.logger.Warn("failed to list active alerts", zap.Error(err))
		return
	}

	required := make(map[string]struct{}, len(alerts))
	for _, alert := range alerts {
		required[strings.ToUpper(alert.Cryptocurrency)] = struct{}{}
	}

	m.stopUnneeded(required)

	for symbol := range required {
		if m.stopInFlight(symbol) {
			continue
		}
		if runner, ok := m.runner(symbol); ok {
			select {
			case <-runner.done:
				// The runner exited on its own; replace it.
				m.removeRunner(symbol)
			default:
				continue
			}
		}
		m.startRunner(ctx, symbol)
	}
}

func (m *PriceMonitor) startRunner(ctx context.Context, symbol string) {
	runCtx, cancel := context.WithCancel(ctx)
	ticks, err := m.streams.Open(runCtx, symbol)
	if err != nil {
		cancel()
		m.logger.Warn("failed to open tick stream", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	runner := &symbolRunner{cancel: cancel, done: make(chan struct{})}
	m.mu.Lock()
	m.runners[symbol] = runner
	m.mu.Unlock()

	go func() {
		defer close(runner.done)
		for tick := range ticks {
			m.rememberPrice(symbol, tick.Price)
			m.checkAlerts(runCtx, symbol, tick.Price)
		}
	}()

	m.logger.Info("subscription started", zap.String("symbol", symbol))
}

func (m *PriceMonitor) stopUnneeded(required map[string]struct{}) {
	var unneeded []string
	m.mu.RLock()
	for symbol := range m.runners {
		if _, ok := required[symbol]; !ok {
			unneeded = append(unneeded, symbol)
		}
	}
	m.mu.RUnlock()

	for _, symbol := range unneeded {
		runner, ok := m.runner(symbol)
		if !ok {
			continue
		}
		stopDone := make(chan struct{})
		m.mu.Lock()
		delete(m.runners, symbol)
		m.stopping[symbol] = stopDone
		m.mu.Unlock()

		go func(symbol string, runner *symbolRunner, stopDone chan struct{}) {
			runner.cancel()
			<-runner.done
			m.mu.Lock()
			delete(m.stopping, symbol)
			m.mu.Unlock()
			close(stopDone)
			m.logger.Info("subscription stopped", zap.String("symbol", symbol))
		}(symbol, runner, stopDone)
	}
}

func (m *PriceMonitor) stopAll() {
	m.mu.Lock()
	runners := m.runners
	m.runners = make(map[string]*symbolRunner)
	inFlight := make([]chan struct{}, 0, len(m.stopping))
	for _, stopDone := range m.stopping {
		inFlight = append(inFlight, stopDone)
	}
	m.mu.Unlock()

	for _, runner := range runners {
		runner.cancel()
		<-runner.done
	}
	for _, stopDone := range inFlight {
		<-stopDone
	}
}

// checkAlerts reloads the active alerts for the symbol on every tick so that
// alerts created or deactivated since the last sync pass are honoured
// immediately, at the cost of one store read per tick.
func (m *PriceMonitor) checkAlerts(ctx context.Context, symbol string, price decimal.Decimal) {
	alerts, err := m.alerts.ListActiveBySymbol(ctx, symbol)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("failed to load alerts for symbol", zap.String("symbol", symbol), zap.Error(err))
		}
		return
	}

	for _, alert := range alerts {
		if Triggered(alert, price) {
			m.dispatcher.Dispatch(ctx, alert, price)
		}
	}
}

func (m *PriceMonitor) rememberPrice(symbol string, price decimal.Decimal) {
	m.priceMu.Lock()
	m.lastPrices[symbol] = price
	m.priceMu.Unlock()
}

// LastPrice returns the most recent tick price seen for the symbol. The cached
// value is informational; alert evaluation always uses the incoming tick.
func (m *PriceMonitor) LastPrice(symbol string) (decimal.Decimal, bool) {
	m.priceMu.RLock()
	defer m.priceMu.RUnlock()
	price, ok := m.lastPrices[strings.ToUpper(symbol)]
	return price, ok
}

// LiveSymbols lists the symbols with a currently running subscription.
func (m *PriceMonitor) LiveSymbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	symbols := make([]string, 0, len(m.runners))
	for symbol := range m.runners {
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (m *PriceMonitor) stopInFlight(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stopping[symbol]
	return ok
}

func (m *PriceMonitor) runner(symbol string) (*symbolRunner, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runner, ok := m.runners[symbol]
	return runner, ok
}

func (m *PriceMonitor) removeRunner(symbol string) {
	m.mu.Lock()
	delete(m.runners, symbol)
	m.mu.Unlock()
}
