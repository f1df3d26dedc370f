package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the MySQL store. WithinTx holds
// one mutex for the whole transaction (the coarse equivalent of row
// locks) and restores a snapshot when fn fails, so commit/rollback
// semantics match the real store.
type memStore struct {
	mu       sync.Mutex
	products map[int64]*memProduct
	orders   map[string]*domain.Order
	outbox   []memOutboxRow
}

type memProduct struct {
	name  string
	price decimal.Decimal
	stock int
}

type memOutboxRow struct {
	channel string
	payload []byte
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]*memProduct{},
		orders:   map[string]*domain.Order{},
	}
}

func (s *memStore) addProduct(id int64, name, price string, stock int) {
	s.products[id] = &memProduct{name: name, price: decimal.RequireFromString(price), stock: stock}
}

func (s *memStore) stockOf(id int64) int { return s.products[id].stock }

func (s *memStore) snapshot() (map[int64]*memProduct, map[string]*domain.Order, []memOutboxRow) {
	products := make(map[int64]*memProduct, len(s.products))
	for id, p := range s.products {
		cp := *p
		products[id] = &cp
	}
	orders := make(map[string]*domain.Order, len(s.orders))
	for id, o := range s.orders {
		cp := *o
		cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
		orders[id] = &cp
	}
	outbox := append([]memOutboxRow(nil), s.outbox...)
	return products, orders, outbox
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, orders, outbox := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.products, s.orders, s.outbox = products, orders, outbox
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) InsertOrder(_ context.Context, id, customerName string, orderDate time.Time) error {
	t.s.orders[id] = &domain.Order{ID: id, CustomerName: customerName, OrderDate: orderDate}
	return nil
}

func (t *memTx) ReserveStock(_ context.Context, productID int64, qty int) (ProductSnapshot, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return ProductSnapshot{}, &domain.ProductNotFoundError{ProductID: productID}
	}
	if p.stock < qty {
		return ProductSnapshot{}, &domain.InsufficientStockError{ProductID: productID, Stock: p.stock, Requested: qty}
	}
	p.stock -= qty
	return ProductSnapshot{ID: productID, Name: p.name, UnitPrice: p.price}, nil
}

func (t *memTx) InsertLine(_ context.Context, orderID string, line domain.OrderLine) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s missing", orderID)
	}
	o.Lines = append(o.Lines, line)
	return nil
}

func (t *memTx) InsertOutbox(_ context.Context, channel string, payload []byte) error {
	t.s.outbox = append(t.s.outbox, memOutboxRow{channel: channel, payload: payload})
	return nil
}

// memReader reads committed orders back out of the store.
type memReader struct{ s *memStore }

func (r *memReader) List(context.Context) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Order
	for _, o := range r.s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *memReader) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

// memIdem is a map-backed idempotency store.
type memIdem struct {
	mu    sync.Mutex
	locks map[string]bool
	vals  map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, vals: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdem) Unlock(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[scope+":"+key]
	return v, ok, nil
}

func newSubmitFixture() (*memStore, *SubmitOrder) {
	s := newMemStore()
	return s, NewSubmitOrder(s, &memReader{s: s}, newMemIdem())
}

func validInput(lines ...LineRequest) SubmitOrderInput {
	return SubmitOrderInput{
		CustomerName: "Alice Johnson",
		OrderDate:    time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Lines:        lines,
	}
}

func TestSubmitOrderSuccess(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 5)

	order, err := uc.Execute(context.Background(), validInput(LineRequest{ProductID: 1, Quantity: 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.stockOf(1); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}
	if got := order.Total().StringFixed(2); got != "30.00" {
		t.Fatalf("total = %s, want 30.00", got)
	}
	if len(order.Lines) != 1 || order.Lines[0].UnitPrice.StringFixed(2) != "10.00" {
		t.Fatalf("unexpected lines: %+v", order.Lines)
	}
	if len(s.outbox) != 1 || s.outbox[0].channel != ChannelOrderPlaced {
		t.Fatalf("expected one outbox row on channel %s, got %+v", ChannelOrderPlaced, s.outbox)
	}
}

func TestSubmitOrderInsufficientStock(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 2)

	_, err := uc.Execute(context.Background(), validInput(LineRequest{ProductID: 1, Quantity: 5}))

	var isErr *domain.InsufficientStockError
	if !errors.As(err, &isErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if isErr.ProductID != 1 {
		t.Fatalf("offending product = %d, want 1", isErr.ProductID)
	}
	if got := s.stockOf(1); got != 2 {
		t.Fatalf("stock = %d, want 2 (unchanged)", got)
	}
	if len(s.orders) != 0 {
		t.Fatalf("no order should exist, got %d", len(s.orders))
	}
	if len(s.outbox) != 0 {
		t.Fatalf("no outbox row should exist, got %d", len(s.outbox))
	}
}

func TestSubmitOrderProductNotFound(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 5)

	_, err := uc.Execute(context.Background(), validInput(
		LineRequest{ProductID: 1, Quantity: 1},
		LineRequest{ProductID: 9999, Quantity: 1},
	))

	var nfErr *domain.ProductNotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
	if nfErr.ProductID != 9999 {
		t.Fatalf("offending product = %d, want 9999", nfErr.ProductID)
	}
	// The reservation on product 1 from the first line must be undone.
	if got := s.stockOf(1); got != 5 {
		t.Fatalf("stock = %d, want 5 (rolled back)", got)
	}
	if len(s.orders) != 0 {
		t.Fatalf("no order should exist, got %d", len(s.orders))
	}
}

func TestSubmitOrderAtomicityAcrossLines(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 10)
	s.addProduct(2, "Mouse", "5.00", 1)

	_, err := uc.Execute(context.Background(), validInput(
		LineRequest{ProductID: 1, Quantity: 4},
		LineRequest{ProductID: 2, Quantity: 3},
	))

	var isErr *domain.InsufficientStockError
	if !errors.As(err, &isErr) || isErr.ProductID != 2 {
		t.Fatalf("expected InsufficientStockError on product 2, got %v", err)
	}
	if s.stockOf(1) != 10 || s.stockOf(2) != 1 {
		t.Fatalf("stocks = %d,%d, want 10,1", s.stockOf(1), s.stockOf(2))
	}
}

func TestSubmitOrderRepeatedProductLines(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 5)

	// Repeated lines are independent reservations: 3 then 3 against 5
	// fails on the second line and rolls back the first.
	_, err := uc.Execute(context.Background(), validInput(
		LineRequest{ProductID: 1, Quantity: 3},
		LineRequest{ProductID: 1, Quantity: 3},
	))

	var isErr *domain.InsufficientStockError
	if !errors.As(err, &isErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if got := s.stockOf(1); got != 5 {
		t.Fatalf("stock = %d, want 5 (rolled back)", got)
	}

	// 2 then 3 fits exactly.
	order, err := uc.Execute(context.Background(), validInput(
		LineRequest{ProductID: 1, Quantity: 2},
		LineRequest{ProductID: 1, Quantity: 3},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.stockOf(1); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
	if got := order.Total().StringFixed(2); got != "50.00" {
		t.Fatalf("total = %s, want 50.00", got)
	}
}

func TestSubmitOrderValidation(t *testing.T) {
	_, uc := newSubmitFixture()

	cases := []struct {
		name string
		in   SubmitOrderInput
	}{
		{"short customer name", SubmitOrderInput{
			CustomerName: "Al",
			OrderDate:    time.Now(),
			Lines:        []LineRequest{{ProductID: 1, Quantity: 1}},
		}},
		{"zero order date", SubmitOrderInput{
			CustomerName: "Alice",
			Lines:        []LineRequest{{ProductID: 1, Quantity: 1}},
		}},
		{"no lines", SubmitOrderInput{
			CustomerName: "Alice",
			OrderDate:    time.Now(),
		}},
		{"zero quantity", SubmitOrderInput{
			CustomerName: "Alice",
			OrderDate:    time.Now(),
			Lines:        []LineRequest{{ProductID: 1, Quantity: 0}},
		}},
		{"missing product id", SubmitOrderInput{
			CustomerName: "Alice",
			OrderDate:    time.Now(),
			Lines:        []LineRequest{{Quantity: 1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.in)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestSubmitOrderPricePinning(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 5)

	order, err := uc.Execute(context.Background(), validInput(LineRequest{ProductID: 1, Quantity: 2}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Reprice the product after commit; the order keeps its price.
	s.products[1].price = decimal.RequireFromString("99.99")

	if got := order.Lines[0].UnitPrice.StringFixed(2); got != "10.00" {
		t.Fatalf("line price = %s, want 10.00", got)
	}
	if got := order.Total().StringFixed(2); got != "20.00" {
		t.Fatalf("total = %s, want 20.00", got)
	}
}

func TestSubmitOrderConcurrentNoOversell(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 5)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), validInput(LineRequest{ProductID: 1, Quantity: 3}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			var isErr *domain.InsufficientStockError
			if !errors.As(err, &isErr) {
				t.Errorf("unexpected error kind: %v", err)
			}
			failures++
		}()
	}
	wg.Wait()

	// 5 units, 3 per order: exactly one order fits.
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", succeeded)
	}
	if failures != workers-1 {
		t.Fatalf("failures = %d, want %d", failures, workers-1)
	}
	if got := s.stockOf(1); got != 2 {
		t.Fatalf("final stock = %d, want 2", got)
	}
}

func TestSubmitOrderConservation(t *testing.T) {
	s, uc := newSubmitFixture()
	const initial = 20
	s.addProduct(1, "Keyboard", "10.00", initial)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, _ = uc.Execute(context.Background(), validInput(LineRequest{ProductID: 1, Quantity: q}))
		}(i%3 + 1)
	}
	wg.Wait()

	committed := 0
	for _, o := range s.orders {
		for _, l := range o.Lines {
			committed += l.Quantity
		}
	}
	if got := s.stockOf(1); got != initial-committed {
		t.Fatalf("final stock = %d, want %d (initial %d - committed %d)", got, initial-committed, initial, committed)
	}
	if s.stockOf(1) < 0 {
		t.Fatalf("stock went negative: %d", s.stockOf(1))
	}
}

func TestSubmitOrderIdempotencyKey(t *testing.T) {
	s, uc := newSubmitFixture()
	s.addProduct(1, "Keyboard", "10.00", 5)

	in := validInput(LineRequest{ProductID: 1, Quantity: 3})
	in.IdempotencyKey = "key-1"

	first, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("retry returned a different order: %s vs %s", first.ID, second.ID)
	}
	if got := s.stockOf(1); got != 2 {
		t.Fatalf("stock = %d, want 2 (decremented once)", got)
	}
}

func TestSubmitOrderRetryAfterFailureReusesKey(t *testing.T) {
	s := newMemStore()
	s.addProduct(1, "Keyboard", "10.00", 5)
	reader := &memReader{s: s}
	idem := newMemIdem()

	in := validInput(LineRequest{ProductID: 1, Quantity: 3})
	in.IdempotencyKey = "key-1"

	// First attempt dies mid-transaction; the fence must not survive it.
	broken := NewSubmitOrder(&failingStore{inner: s}, reader, idem)
	if _, err := broken.Execute(context.Background(), in); err == nil {
		t.Fatal("expected storage failure")
	}

	healthy := NewSubmitOrder(s, reader, idem)
	order, err := healthy.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("retry with the same key failed: %v", err)
	}
	if got := s.stockOf(1); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}

	// The key now maps to the committed order; a further retry replays it.
	again, err := healthy.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if again.ID != order.ID {
		t.Fatalf("replay returned a different order: %s vs %s", again.ID, order.ID)
	}
}

func TestSubmitOrderStorageFailureRollsBack(t *testing.T) {
	s := newMemStore()
	s.addProduct(1, "Keyboard", "10.00", 5)
	failing := &failingStore{inner: s}
	uc := NewSubmitOrder(failing, &memReader{s: s}, newMemIdem())

	_, err := uc.Execute(context.Background(), validInput(LineRequest{ProductID: 1, Quantity: 3}))
	if err == nil {
		t.Fatal("expected storage failure")
	}
	if got := s.stockOf(1); got != 5 {
		t.Fatalf("stock = %d, want 5 (rolled back)", got)
	}
	if len(s.orders) != 0 {
		t.Fatalf("no order should exist, got %d", len(s.orders))
	}
}

// failingStore makes the line insert blow up mid-transaction.
type failingStore struct{ inner *memStore }

func (f *failingStore) WithinTx(ctx context.Context, fn func(tx OrderTx) error) error {
	return f.inner.WithinTx(ctx, func(tx OrderTx) error {
		return fn(&failingTx{OrderTx: tx})
	})
}

type failingTx struct{ OrderTx }

func (t *failingTx) InsertLine(context.Context, string, domain.OrderLine) error {
	return errors.New("disk on fire")
}
