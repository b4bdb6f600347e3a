package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeAlertRepo struct {
	mu            sync.Mutex
	alerts        map[uint]domain.PriceAlert
	nextID        uint
	listErr       error
	deactivateErr error
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[uint]domain.PriceAlert)}
}

func (r *fakeAlertRepo) Create(ctx context.Context, alert *domain.PriceAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	alert.ID = r.nextID
	r.alerts[alert.ID] = *alert
	return nil
}

func (r *fakeAlertRepo) GetByID(ctx context.Context, alertID uint) (*domain.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &alert, nil
}

func (r *fakeAlertRepo) ListActiveByUser(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceAlert
	for _, alert := range r.alerts {
		if alert.IsActive && alert.UserID == userID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) ListActive(ctx context.Context) ([]domain.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.PriceAlert
	for _, alert := range r.alerts {
		if alert.IsActive {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) ListActiveBySymbol(ctx context.Context, symbol string) ([]domain.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceAlert
	for _, alert := range r.alerts {
		if alert.IsActive && strings.EqualFold(alert.Cryptocurrency, symbol) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) Update(ctx context.Context, alertID uint, update domain.AlertUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return domain.ErrNotFound
	}
	if update.Cryptocurrency != nil {
		alert.Cryptocurrency = *update.Cryptocurrency
	}
	if update.TargetPrice != nil {
		alert.TargetPrice = *update.TargetPrice
	}
	if update.IsAbove != nil {
		alert.IsAbove = *update.IsAbove
	}
	r.alerts[alertID] = alert
	return nil
}

func (r *fakeAlertRepo) Deactivate(ctx context.Context, alertID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deactivateErr != nil {
		return r.deactivateErr
	}
	alert, ok := r.alerts[alertID]
	if !ok {
		return domain.ErrNotFound
	}
	alert.IsActive = false
	r.alerts[alertID] = alert
	return nil
}

func (r *fakeAlertRepo) addActive(userID int64, symbol, target string, isAbove bool) uint {
	alert := &domain.PriceAlert{
		UserID:         userID,
		Cryptocurrency: symbol,
		TargetPrice:    decimal.RequireFromString(target),
		IsAbove:        isAbove,
		CreatedAt:      time.Now(),
		IsActive:       true,
	}
	_ = r.Create(context.Background(), alert)
	return alert.ID
}

func (r *fakeAlertRepo) isActive(alertID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alerts[alertID].IsActive
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []string
	attempts int
	failures int

	// block, when set, makes Notify hang until the channel is closed. With
	// blockIgnoresCtx the hang survives cancellation, simulating a send that
	// is bounded only by the transport timeout.
	block           chan struct{}
	blockIgnoresCtx bool
}

func (n *fakeNotifier) Notify(ctx context.Context, telegramUserID int64, text string) error {
	n.mu.Lock()
	n.attempts++
	block := n.block
	ignoresCtx := n.blockIgnoresCtx
	if n.failures > 0 {
		n.failures--
		n.mu.Unlock()
		return errors.New("send failed")
	}
	n.mu.Unlock()

	if block != nil {
		if ignoresCtx {
			<-block
		} else {
			select {
			case <-block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	n.mu.Lock()
	n.sent = append(n.sent, text)
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) attemptCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attempts
}

type fakeStreamFactory struct {
	mu     sync.Mutex
	inputs map[string]chan domain.PriceTick
	opens  map[string]int
	closed map[string]int
}

func newFakeStreamFactory() *fakeStreamFactory {
	return &fakeStreamFactory{
		inputs: make(map[string]chan domain.PriceTick),
		opens:  make(map[string]int),
		closed: make(map[string]int),
	}
}

// Open mirrors the real stream contract: the returned channel closes only
// after the background goroutine has observed cancellation and unwound.
func (f *fakeStreamFactory) Open(ctx context.Context, symbol string) (<-chan domain.PriceTick, error) {
	input := make(chan domain.PriceTick, 16)
	f.mu.Lock()
	f.opens[symbol]++
	f.inputs[symbol] = input
	f.mu.Unlock()

	out := make(chan domain.PriceTick)
	go func() {
		defer func() {
			f.mu.Lock()
			f.closed[symbol]++
			f.mu.Unlock()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-input:
				select {
				case out <- tick:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *fakeStreamFactory) push(symbol, price string) {
	f.mu.Lock()
	input := f.inputs[symbol]
	f.mu.Unlock()
	if input == nil {
		return
	}
	select {
	case input <- domain.PriceTick{Symbol: symbol, Price: decimal.RequireFromString(price), ReceivedAt: time.Now()}:
	default:
	}
}

func (f *fakeStreamFactory) openCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[symbol]
}

func (f *fakeStreamFactory) closeCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[symbol]
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return d
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
