package internal

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"vendor-management-api/internal/config"
	"vendor-management-api/internal/models"
	"vendor-management-api/internal/performance"
	"vendor-management-api/internal/store"
	"vendor-management-api/internal/validate"
)

// fakeStore is an in-memory Store. Order mutations recalculate the vendor
// through the real Recalculator, so handler tests see the same metrics the
// Postgres store would produce.
type fakeStore struct {
	mu       sync.Mutex
	now      time.Time
	recalc   *performance.Recalculator
	vendors  map[int64]*models.Vendor
	orders   map[int64]*models.PurchaseOrder
	history  map[int64][]models.HistoricalPerformance
	nextID   int64
	pingErr  error
	failWith error
}

func newFakeStore() *fakeStore {
	fs := &fakeStore{
		now:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		vendors: map[int64]*models.Vendor{},
		orders:  map[int64]*models.PurchaseOrder{},
		history: map[int64][]models.HistoricalPerformance{},
	}
	fs.recalc = performance.NewRecalculator(nil, performance.WithClock(func() time.Time { return fs.now }))
	return fs
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListVendors(_ context.Context, filter models.VendorFilter) ([]models.Vendor, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	out := []models.Vendor{}
	for _, v := range f.vendors {
		q := strings.ToLower(filter.Q)
		if q != "" && !strings.Contains(strings.ToLower(v.Name), q) && !strings.Contains(strings.ToLower(v.VendorCode), q) {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (f *fakeStore) GetVendor(_ context.Context, id int64) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vendors[id]
	if !ok {
		return models.Vendor{}, store.ErrNotFound
	}
	return *v, nil
}

func (f *fakeStore) VendorByCode(_ context.Context, code string) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vendors {
		if v.VendorCode == code {
			return *v, nil
		}
	}
	return models.Vendor{}, store.ErrNotFound
}

func (f *fakeStore) CreateVendor(_ context.Context, in models.CreateVendorRequest) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vendors {
		if v.VendorCode == in.VendorCode {
			return models.Vendor{}, validate.Field("vendor_code", "vendor with this vendor code already exists.")
		}
	}
	v := &models.Vendor{
		ID:             f.id(),
		Name:           in.Name,
		ContactDetails: in.ContactDetails,
		Address:        in.Address,
		VendorCode:     in.VendorCode,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	f.vendors[v.ID] = v
	return *v, nil
}

func (f *fakeStore) UpdateVendor(_ context.Context, id int64, in models.UpdateVendorRequest) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vendors[id]
	if !ok {
		return models.Vendor{}, store.ErrNotFound
	}
	if in.Name != nil {
		v.Name = *in.Name
	}
	if in.ContactDetails != nil {
		v.ContactDetails = in.ContactDetails
	}
	if in.Address != nil {
		v.Address = in.Address
	}
	if in.VendorCode != nil {
		v.VendorCode = *in.VendorCode
	}
	return *v, nil
}

func (f *fakeStore) DeleteVendor(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vendors[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.vendors, id)
	delete(f.history, id)
	for oid, po := range f.orders {
		if po.VendorID == id {
			delete(f.orders, oid)
		}
	}
	return nil
}

func (f *fakeStore) VendorPerformance(_ context.Context, id int64) (models.Performance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vendors[id]
	if !ok {
		return models.Performance{}, store.ErrNotFound
	}
	return v.Performance, nil
}

func (f *fakeStore) VendorHistory(_ context.Context, id int64, limit, offset int) ([]models.HistoricalPerformance, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vendors[id]; !ok {
		return nil, 0, store.ErrNotFound
	}
	h := f.history[id]
	out := make([]models.HistoricalPerformance, 0, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, h[i])
	}
	return page(out, limit, offset), len(out), nil
}

func (f *fakeStore) ListPurchaseOrders(_ context.Context, filter models.PurchaseOrderFilter) ([]models.PurchaseOrder, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PurchaseOrder{}
	for _, po := range f.orders {
		if filter.VendorID > 0 && po.VendorID != filter.VendorID {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, string(po.Status)) {
			continue
		}
		out = append(out, *po)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeStore) GetPurchaseOrder(_ context.Context, id int64) (models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	po, ok := f.orders[id]
	if !ok {
		return models.PurchaseOrder{}, store.ErrNotFound
	}
	return *po, nil
}

func (f *fakeStore) CreatePurchaseOrder(ctx context.Context, in models.CreatePurchaseOrderRequest) (models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vendors[in.VendorID]; !ok {
		return models.PurchaseOrder{}, validate.Field("vendor", "Invalid vendor - object does not exist.")
	}
	for _, po := range f.orders {
		if po.PONumber == in.PONumber {
			return models.PurchaseOrder{}, validate.Field("po_number", "purchase order with this po number already exists.")
		}
	}
	po := &models.PurchaseOrder{
		ID:                 f.id(),
		PONumber:           in.PONumber,
		VendorID:           in.VendorID,
		OrderDate:          f.now,
		DeliveryDate:       *in.DeliveryDate,
		Items:              in.Items,
		Quantity:           in.Quantity,
		Status:             in.Status,
		QualityRating:      in.QualityRating,
		IssueDate:          f.now,
		AcknowledgmentDate: in.AcknowledgmentDate,
		CreatedAt:          f.now,
		UpdatedAt:          f.now,
	}
	if in.OrderDate != nil {
		po.OrderDate = *in.OrderDate
	}
	if in.IssueDate != nil {
		po.IssueDate = *in.IssueDate
	}
	if po.Status == "" {
		po.Status = models.StatusPending
	}
	if len(po.Items) == 0 {
		po.Items = []byte("[]")
	}
	f.orders[po.ID] = po
	if err := f.recalculate(ctx, po.VendorID); err != nil {
		return models.PurchaseOrder{}, err
	}
	return *po, nil
}

func (f *fakeStore) UpdatePurchaseOrder(ctx context.Context, id int64, in models.UpdatePurchaseOrderRequest) (models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	po, ok := f.orders[id]
	if !ok {
		return models.PurchaseOrder{}, store.ErrNotFound
	}
	prev := po.VendorID
	if in.VendorID != nil {
		if _, ok := f.vendors[*in.VendorID]; !ok {
			return models.PurchaseOrder{}, validate.Field("vendor", "Invalid vendor - object does not exist.")
		}
		po.VendorID = *in.VendorID
	}
	if in.PONumber != nil {
		po.PONumber = *in.PONumber
	}
	if in.DeliveryDate != nil {
		po.DeliveryDate = *in.DeliveryDate
	}
	if in.Quantity != nil {
		po.Quantity = *in.Quantity
	}
	if in.Status != nil {
		po.Status = *in.Status
	}
	if in.QualityRating != nil {
		po.QualityRating = in.QualityRating
	}
	if in.IssueDate != nil {
		po.IssueDate = *in.IssueDate
	}
	if in.AcknowledgmentDate != nil {
		po.AcknowledgmentDate = in.AcknowledgmentDate
	}
	if prev != po.VendorID {
		if err := f.recalculate(ctx, prev); err != nil {
			return models.PurchaseOrder{}, err
		}
	}
	if err := f.recalculate(ctx, po.VendorID); err != nil {
		return models.PurchaseOrder{}, err
	}
	return *po, nil
}

func (f *fakeStore) DeletePurchaseOrder(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	po, ok := f.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(f.orders, id)
	return f.recalculate(ctx, po.VendorID)
}

func (f *fakeStore) AcknowledgePurchaseOrder(ctx context.Context, id int64) (models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	po, ok := f.orders[id]
	if !ok {
		return models.PurchaseOrder{}, store.ErrNotFound
	}
	at := f.now
	po.AcknowledgmentDate = &at
	if err := f.recalculate(ctx, po.VendorID); err != nil {
		return models.PurchaseOrder{}, err
	}
	return *po, nil
}

func (f *fakeStore) recalculate(ctx context.Context, vendorID int64) error {
	_, err := f.recalc.Recalculate(ctx, fakeRepo{f}, vendorID)
	return err
}

// fakeRepo exposes the fake store's maps to the Recalculator. Callers hold f.mu.
type fakeRepo struct{ f *fakeStore }

func (r fakeRepo) VendorPerformance(_ context.Context, id int64) (models.Performance, error) {
	v, ok := r.f.vendors[id]
	if !ok {
		return models.Performance{}, store.ErrNotFound
	}
	return v.Performance, nil
}

func (r fakeRepo) VendorOrders(_ context.Context, id int64) ([]models.PurchaseOrder, error) {
	var out []models.PurchaseOrder
	for _, po := range r.f.orders {
		if po.VendorID == id {
			out = append(out, *po)
		}
	}
	return out, nil
}

func (r fakeRepo) SetVendorPerformance(_ context.Context, id int64, p models.Performance) error {
	v, ok := r.f.vendors[id]
	if !ok {
		return errors.New("vendor vanished")
	}
	v.Performance = p
	return nil
}

func (r fakeRepo) LatestSnapshot(_ context.Context, id int64) (*models.HistoricalPerformance, error) {
	h := r.f.history[id]
	if len(h) == 0 {
		return nil, nil
	}
	latest := h[len(h)-1]
	return &latest, nil
}

func (r fakeRepo) AppendSnapshot(_ context.Context, id int64, p models.Performance, at time.Time) error {
	r.f.history[id] = append(r.f.history[id], models.HistoricalPerformance{
		ID:          r.f.id(),
		VendorID:    id,
		Date:        at,
		Performance: p,
	})
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseDSN: "postgres://unused",
		Addr:        ":0",
		Environment: "test",
	}
}

func newTestServer(t testing.TB, st Store) *Server {
	t.Helper()
	s, err := NewServer(st, testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}
