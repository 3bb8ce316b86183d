package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scholarbot/internal/models"
)

type fakeGateway struct {
	reqs  []InitializeRequest
	plans []Plan
	err   error
}

func (f *fakeGateway) Initialize(_ context.Context, req InitializeRequest) (InitializeResult, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return InitializeResult{}, f.err
	}
	return InitializeResult{AuthorizationURL: "https://checkout.paystack.com/abc", Reference: req.Reference}, nil
}

func (f *fakeGateway) ListPlans(context.Context) ([]Plan, error) { return f.plans, f.err }

type fakePlans struct {
	byCode map[string]models.PricingPlan
}

func (f *fakePlans) UpsertPlanByCode(_ context.Context, p models.PricingPlan) (bool, error) {
	_, exists := f.byCode[p.PlanCode()]
	f.byCode[p.PlanCode()] = p
	return !exists, nil
}

func TestCheckoutSendsEmailAndAmount(t *testing.T) {
	gw := &fakeGateway{}
	b := NewBridge(BridgeOptions{Gateway: gw, Currency: "NGN"})
	code := "PLN_x"
	plan := models.PricingPlan{ID: 3, Name: "Monthly Premium", Price: 150000, PaystackPlanCode: &code}

	url, err := b.Checkout(context.Background(), 42, plan, " ada@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", url)

	require.Len(t, gw.reqs, 1)
	req := gw.reqs[0]
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, int64(150000), req.Amount)
	assert.NotEmpty(t, req.Reference)
	assert.Equal(t, "PLN_x", req.Plan)
	assert.Equal(t, DefaultChannels, req.Channels)
	assert.Equal(t, "42", req.Metadata.TelegramID)
	assert.Equal(t, "3", req.Metadata.PlanID)
	assert.Len(t, req.Metadata.CustomFields, 2)
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	gw := &fakeGateway{}
	sw := NewSwitch(true)
	b := NewBridge(BridgeOptions{Gateway: gw, Switch: sw})
	ctx := context.Background()

	_, err := b.Checkout(ctx, 1, models.PricingPlan{Price: 100}, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = b.Checkout(ctx, 1, models.PricingPlan{Price: 0}, "a@b.co")
	assert.ErrorIs(t, err, ErrZeroAmount)

	sw.Set(false)
	_, err = b.Checkout(ctx, 1, models.PricingPlan{Price: 100}, "a@b.co")
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
	assert.Empty(t, gw.reqs)
}

func TestCheckoutWrapsGatewayErrors(t *testing.T) {
	b := NewBridge(BridgeOptions{Gateway: &fakeGateway{err: errors.New("502")}})
	_, err := b.Checkout(context.Background(), 1, models.PricingPlan{Price: 100}, "a@b.co")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize checkout")
}

func TestSyncPlans(t *testing.T) {
	store := &fakePlans{byCode: map[string]models.PricingPlan{"PLN_old": {}}}
	gw := &fakeGateway{plans: []Plan{
		{Name: "Old", PlanCode: "PLN_old", Amount: 100000, Interval: "monthly"},
		{Name: "New", PlanCode: "PLN_new", Amount: 500000, Interval: "annually", IsArchived: true},
		{Name: "Broken", PlanCode: "", Amount: 1},
	}}
	res, err := NewBridge(BridgeOptions{Gateway: gw, Plans: store}).SyncPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 1, Updated: 1, Skipped: 1}, res)
	assert.False(t, store.byCode["PLN_new"].IsActive)
}

func TestSwitchToggle(t *testing.T) {
	s := NewSwitch(true)
	assert.False(t, s.Toggle())
	assert.False(t, s.Enabled())
	assert.True(t, s.Toggle())
}

func TestFormatNairaAndNextDate(t *testing.T) {
	assert.Equal(t, "₦1500.00", FormatNaira(150000))
	assert.Equal(t, "₦0.50", FormatNaira(50))

	from := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, from.AddDate(0, 0, 7), NextPaymentDate("weekly", from))
	assert.Equal(t, from.AddDate(1, 0, 0), NextPaymentDate("annually", from))
	assert.Equal(t, from.AddDate(0, 1, 0), NextPaymentDate("whatever", from))
}

func TestPaystackClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/transaction/initialize":
			var req InitializeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(50000), req.Amount)
			assert.Equal(t, "7", req.Metadata.TelegramID)
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://pay/x","access_code":"ac","reference":"r1"}}`))
		case "/plan":
			_, _ = w.Write([]byte(`{"status":true,"data":[{"name":"Weekly","plan_code":"PLN_w","amount":50000,"interval":"weekly"}]}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
		}
	}))
	defer srv.Close()

	p := NewPaystack(srv.URL+"/", "sk_test", time.Second)
	res, err := p.Initialize(context.Background(), InitializeRequest{Email: "a@b.co", Amount: 50000, Metadata: Metadata{TelegramID: "7"}})
	require.NoError(t, err)
	assert.Equal(t, "https://pay/x", res.AuthorizationURL)

	plans, err := p.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "PLN_w", plans[0].PlanCode)
}

func TestPaystackClientReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid Email Address Passed"}`))
	}))
	defer srv.Close()

	_, err := NewPaystack(srv.URL, "sk", time.Second).Initialize(context.Background(), InitializeRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Email Address Passed")
}
