package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scholarbot/internal/config"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/store"
)

const secret = "sk_test_secret"

type fakeStore struct {
	mu      sync.Mutex
	users   map[int64]models.User
	plans   []models.PricingPlan
	subs    map[string]models.Subscription
	writes  int
	failing bool
}

func newFakeStore() *fakeStore {
	code := "PLN_weekly"
	return &fakeStore{
		users: map[int64]models.User{42: {ID: 7, TelegramID: 42}},
		plans: []models.PricingPlan{{ID: 1, Name: "Weekly Access", Price: 50000, Interval: "weekly", PaystackPlanCode: &code, IsActive: true}},
		subs:  map[string]models.Subscription{},
	}
}

func (f *fakeStore) GetUserByTelegramID(_ context.Context, id int64) (models.User, error) {
	if f.failing {
		return models.User{}, errors.New("connection refused")
	}
	u, ok := f.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetSubscriptionByCode(_ context.Context, code string) (models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[code]
	if !ok {
		return models.Subscription{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) UpsertSubscription(_ context.Context, s models.Subscription) (models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if prev, ok := f.subs[s.PaystackSubscriptionCode]; ok {
		s.ID = prev.ID
		if s.PaystackCustomerCode == "" {
			s.PaystackCustomerCode = prev.PaystackCustomerCode
		}
		if s.NextPaymentDate == nil {
			s.NextPaymentDate = prev.NextPaymentDate
		}
	} else {
		s.ID = int64(len(f.subs) + 1)
	}
	f.subs[s.PaystackSubscriptionCode] = s
	return s, nil
}

func (f *fakeStore) GetPlan(_ context.Context, id int64) (models.PricingPlan, error) {
	for _, p := range f.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return models.PricingPlan{}, store.ErrNotFound
}

func (f *fakeStore) GetPlanByCode(_ context.Context, code string) (models.PricingPlan, error) {
	for _, p := range f.plans {
		if p.PlanCode() == code {
			return p, nil
		}
	}
	return models.PricingPlan{}, store.ErrNotFound
}

type note struct {
	telegramID int64
	text       string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *fakeNotifier) Notify(_ context.Context, id int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{id, text})
}

func newTestHandler(st *fakeStore, n Notifier) *Handler {
	h := NewHandler(secret, st, n)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return h
}

func post(t *testing.T, h http.Handler, body, signature string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/paystack/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func signed(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, response) {
	return post(t, h, body, Sign(secret, []byte(body)))
}

const subscriptionCreate = `{
  "event": "subscription.create",
  "data": {
    "subscription_code": "SUB_abc",
    "status": "active",
    "next_payment_date": "2025-03-08T10:00:00.000Z",
    "plan": {"plan_code": "PLN_weekly", "interval": "weekly"},
    "customer": {"customer_code": "CUS_1", "email": "ada@example.com", "metadata": {"telegram_id": "42"}}
  }
}`

func TestRejectsBadSignatureWithoutWriting(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st, nil)

	rec, resp := post(t, h, subscriptionCreate, Sign("wrong", []byte(subscriptionCreate)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", resp.Status)

	rec, _ = post(t, h, subscriptionCreate, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = post(t, h, subscriptionCreate, "not-hex")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, st.writes)
}

func TestSubscriptionCreateReplayConverges(t *testing.T) {
	st := newFakeStore()
	n := &fakeNotifier{}
	h := newTestHandler(st, n)

	for i := 0; i < 3; i++ {
		rec, resp := signed(t, h, subscriptionCreate)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.StatusActive, resp.Message)
	}
	require.Len(t, st.subs, 1)
	sub := st.subs["SUB_abc"]
	assert.Equal(t, int64(7), sub.UserID)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, "CUS_1", sub.PaystackCustomerCode)
	assert.Equal(t, "ada@example.com", sub.PaystackEmail)
	require.NotNil(t, sub.PlanID)
	assert.Equal(t, int64(1), *sub.PlanID)
	require.NotNil(t, sub.NextPaymentDate)
	assert.Equal(t, time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC), *sub.NextPaymentDate)

	require.Len(t, n.notes, 3)
	assert.Equal(t, int64(42), n.notes[0].telegramID)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"event":`, http.StatusBadRequest},
		{"unhandled event", `{"event":"transfer.success","data":{}}`, http.StatusOK},
		{"missing telegram id", `{"event":"subscription.create","data":{"subscription_code":"SUB_x","metadata":""}}`, http.StatusBadRequest},
		{"unknown user", `{"event":"subscription.create","data":{"subscription_code":"SUB_x","metadata":{"telegram_id":999}}}`, http.StatusNotFound},
		{"disable unknown subscription", `{"event":"customer.subscription.disable","data":{"subscription_code":"SUB_none","customer":{"metadata":{"telegram_id":42}}}}`, http.StatusNotFound},
		{"charge without reference", `{"event":"charge.success","data":{"metadata":{"telegram_id":42}}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore()
			rec, _ := signed(t, newTestHandler(st, nil), tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.Zero(t, st.writes)
		})
	}
}

func TestStoreFailureAsksForRedelivery(t *testing.T) {
	st := newFakeStore()
	st.failing = true
	rec, resp := signed(t, newTestHandler(st, nil), subscriptionCreate)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", resp.Message, "driver errors stay out of the response")
}

func TestInvoiceAndDisableLifecycle(t *testing.T) {
	st := newFakeStore()
	n := &fakeNotifier{}
	h := newTestHandler(st, n)
	rec, _ := signed(t, h, subscriptionCreate)
	require.Equal(t, http.StatusOK, rec.Code)

	failed := `{"event":"invoice.update","data":{"status":"failed","paid":false,
		"subscription":{"subscription_code":"SUB_abc","metadata":{"telegram_id":42}}}}`
	rec, _ = signed(t, h, failed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusAttention, st.subs["SUB_abc"].Status)
	assert.NotNil(t, st.subs["SUB_abc"].NextPaymentDate, "a missing date keeps the stored one")

	paid := `{"event":"invoice.update","data":{"status":"success","paid":true,
		"subscription":{"subscription_code":"SUB_abc","next_payment_date":"2025-03-15T10:00:00Z","metadata":{"telegram_id":42}}}}`
	rec, _ = signed(t, h, paid)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusActive, st.subs["SUB_abc"].Status)
	assert.Equal(t, 15, st.subs["SUB_abc"].NextPaymentDate.Day())

	disable := `{"event":"customer.subscription.disable","data":{"subscription_code":"SUB_abc","customer":{"metadata":{"telegram_id":42}}}}`
	rec, _ = signed(t, h, disable)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusCancelled, st.subs["SUB_abc"].Status)
	assert.Equal(t, textCancelled, n.notes[len(n.notes)-1].text)
}

func TestChargeSuccessKeyedByReference(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st, nil)
	body := `{"event":"charge.success","data":{"reference":"sb_123","status":"success","plan":{},
		"paid_at":"2025-03-01T09:00:00Z","metadata":{"telegram_id":42,"plan_id":"1"}}}`

	for i := 0; i < 2; i++ {
		rec, _ := signed(t, h, body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Len(t, st.subs, 1)
	sub := st.subs["ref:sb_123"]
	assert.Equal(t, models.StatusActive, sub.Status)
	require.NotNil(t, sub.NextPaymentDate)
	assert.Equal(t, time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC), *sub.NextPaymentDate)
}

func TestPlanChargeThenCancelLeavesNoPremium(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st, nil)

	charge := `{"event":"charge.success","data":{"reference":"sb_123","status":"success",
		"plan":{"plan_code":"PLN_weekly","interval":"weekly"},
		"paid_at":"2025-03-01T09:00:00Z","metadata":{"telegram_id":42,"plan_id":1}}}`
	rec, resp := signed(t, h, charge)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored: subscription charge", resp.Message)

	rec, _ = signed(t, h, subscriptionCreate)
	require.Equal(t, http.StatusOK, rec.Code)
	disable := `{"event":"customer.subscription.disable","data":{"subscription_code":"SUB_abc","customer":{"metadata":{"telegram_id":42}}}}`
	rec, _ = signed(t, h, disable)
	require.Equal(t, http.StatusOK, rec.Code)

	active := 0
	for code, sub := range st.subs {
		if sub.UserID == 7 && sub.Status == models.StatusActive {
			t.Logf("active row %s", code)
			active++
		}
	}
	assert.Zero(t, active, "cancelling must end premium access")
	assert.NotContains(t, st.subs, "ref:sb_123")
}

func TestTelegramIDLookupOrder(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"event":"x","data":{
		"metadata":"",
		"customer":{"metadata":null},
		"subscription":{"metadata":{"telegram_id":77}}}}`), &ev))
	assert.Equal(t, int64(77), ev.Data.TelegramID())

	require.NoError(t, json.Unmarshal([]byte(`{"event":"x","data":{
		"metadata":{"telegram_id":"5"},
		"customer":{"metadata":{"telegram_id":6}}}}`), &ev))
	assert.Equal(t, int64(5), ev.Data.TelegramID())
}

func TestServerRoutes(t *testing.T) {
	st := newFakeStore()
	down := errors.New("db down")
	var healthy atomic.Bool
	healthy.Store(true)
	s := NewServer(config.HTTPConfig{Listen: ":0", ReadTimeout: time.Second}, newTestHandler(st, nil), map[string]Check{
		"db": func(context.Context) error {
			if healthy.Load() {
				return nil
			}
			return down
		},
	})
	srv := httptest.NewServer(s.srv.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy.Store(false)
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/paystack/webhook", strings.NewReader(subscriptionCreate))
	req.Header.Set(SignatureHeader, Sign(secret, []byte(subscriptionCreate)))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
