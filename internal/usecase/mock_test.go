//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/adapter"
	"vpn-subscription-backend/internal/domain/ports/repository"
	red "vpn-subscription-backend/internal/infra/redis"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================
// Transaction manager
// =============================

// MockTxManager runs the callback inline with a nil handle; repositories
// accept nil as the non-transactional path.
type MockTxManager struct{}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by lowercase email

	CreateFunc     func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: map[string]*model.User{}}
}

func (m *MockUserRepo) Put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[strings.ToLower(u.Email)] = &cp
}

func (m *MockUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *u
	m.users[key] = &cp
	return nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.User, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Code == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) Update(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	m.users[key] = &cp
	return nil
}

func (m *MockUserRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to int64, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if u.Trial || u.Expires < from || u.Expires >= to {
			continue
		}
		cp := *u
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockUserRepo) ListRecentTrialsWithoutCoupon(ctx context.Context, tx repository.Tx, sinceDays, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -sinceDays)
	var out []*model.User
	for _, u := range m.users {
		if !u.Trial || u.HasCoupon() || u.Created.Before(cutoff) {
			continue
		}
		cp := *u
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockUserRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// ---- Mock TransactionRepository ----

type MockTransactionRepo struct {
	mu    sync.Mutex
	items map[string]*model.Transaction

	CompleteIfPendingFunc func(ctx context.Context, tx repository.Tx, id string) (bool, error)
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{items: map[string]*model.Transaction{}}
}

func (m *MockTransactionRepo) Put(t *model.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.items[t.ID] = &cp
}

func (m *MockTransactionRepo) Insert(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[t.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *t
	m.items[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.CompleteIfPendingFunc != nil {
		return m.CompleteIfPendingFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok || t.Complete {
		return false, nil
	}
	t.Complete = true
	return true, nil
}

func (m *MockTransactionRepo) SetExpires(ctx context.Context, tx repository.Tx, id string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Expires = expires
	return nil
}

func (m *MockTransactionRepo) SetRemoteCorrelation(ctx context.Context, tx repository.Tx, id, invoiceID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.RemoteInvoiceID = invoiceID
	t.RemoteStatus = status
	return nil
}

func (m *MockTransactionRepo) SumCompletedByPeriod(ctx context.Context, tx repository.Tx, period string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, t := range m.items {
		if t.Complete {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

// ---- Mock CouponRepository ----

type MockCouponRepo struct {
	mu       sync.Mutex
	coupons  map[string]*model.Coupon
	Bumped   []string
	Inserted []*model.Coupon
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func NewMockCouponRepo() *MockCouponRepo {
	return &MockCouponRepo{coupons: map[string]*model.Coupon{}}
}

func (m *MockCouponRepo) Put(c *model.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.coupons[c.Code] = &cp
}

func (m *MockCouponRepo) Insert(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[c.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.coupons[c.Code] = &cp
	m.Inserted = append(m.Inserted, &cp)
	return nil
}

func (m *MockCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCouponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code == "" {
		return nil
	}
	m.Bumped = append(m.Bumped, code)
	if c, ok := m.coupons[code]; ok {
		c.TimesUsed++
	}
	return nil
}

// ---- Mock PartnerRepository ----

type MockPartnerRepo struct {
	mu       sync.Mutex
	partners map[int64]*model.Partner
}

var _ repository.PartnerRepository = (*MockPartnerRepo)(nil)

func NewMockPartnerRepo() *MockPartnerRepo {
	return &MockPartnerRepo{partners: map[int64]*model.Partner{}}
}

func (m *MockPartnerRepo) Put(p *model.Partner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.partners[p.ID] = &cp
}

func (m *MockPartnerRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ---- Mock TariffRepository ----

type MockTariffRepo struct {
	mu      sync.Mutex
	tariffs map[int]*model.Tariff
}

var _ repository.TariffRepository = (*MockTariffRepo)(nil)

func NewMockTariffRepo() *MockTariffRepo {
	return &MockTariffRepo{tariffs: map[int]*model.Tariff{}}
}

func (m *MockTariffRepo) Put(t *model.Tariff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tariffs[t.Days] = &cp
}

func (m *MockTariffRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Tariff
	for _, t := range m.tariffs {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTariffRepo) FindByDays(ctx context.Context, tx repository.Tx, days int) (*model.Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tariffs[days]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// =============================
// Adapters
// =============================

// ---- Mock InvoiceGateway ----

type MockGateway struct {
	mu       sync.Mutex
	Requests []adapter.InvoiceRequest

	CreateInvoiceFunc func(ctx context.Context, req adapter.InvoiceRequest) (*adapter.InvoiceResult, error)
}

var _ adapter.InvoiceGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "freekassa" }

func (m *MockGateway) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (*adapter.InvoiceResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, req)
	}
	return &adapter.InvoiceResult{Location: "https://pay.example.com/" + req.PaymentID, InvoiceID: "inv-1"}, nil
}

// ---- Mock Mailer ----

type MockMailer struct {
	mu   sync.Mutex
	Sent []adapter.Mail

	SendFunc func(ctx context.Context, m adapter.Mail) error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(ctx context.Context, msg adapter.Mail) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// ---- Mock RateSource ----

type MockRateSource struct {
	mu    sync.Mutex
	Rate  float64
	Calls int
}

var _ adapter.RateSource = (*MockRateSource)(nil)

func (m *MockRateSource) USDToRUB(ctx context.Context) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Rate
}

// ---- In-memory RedisClient ----

// MockRedis is a minimal in-memory stand-in for the cache contracts the
// payment checks rely on. TTLs are tracked but only expired lazily on Get.
type MockRedis struct {
	mu     sync.Mutex
	data   map[string]string
	expiry map[string]time.Time
}

func NewMockRedis() *MockRedis {
	return &MockRedis{data: map[string]string{}, expiry: map[string]time.Time{}}
}

func (m *MockRedis) Ping(ctx context.Context) error { return nil }

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	if expiration > 0 {
		m.expiry[key] = time.Now().Add(expiration)
	}
	return nil
}

func (m *MockRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, ok := m.expiry[key]; ok && time.Now().After(exp) {
		delete(m.data, key)
		delete(m.expiry, key)
	}
	v, ok := m.data[key]
	if !ok {
		return "", red.Nil
	}
	return v, nil
}

func (m *MockRedis) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *MockRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[key] = time.Now().Add(expiration)
	return nil
}

func (m *MockRedis) Exists(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			n++
		}
	}
	return n, nil
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.expiry, k)
	}
	return nil
}

func (m *MockRedis) Close() error { return nil }

var _ red.RedisClient = (*MockRedis)(nil)

// ---- Mock CountryResolver ----

type MockGeo struct {
	ISO string
}

var _ adapter.CountryResolver = (*MockGeo)(nil)

func (m *MockGeo) CountryISO(context.Context, string) string {
	if m.ISO == "" {
		return "us"
	}
	return m.ISO
}
