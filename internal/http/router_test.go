package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/cart/cache"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/jobs"
	"github.com/fjod/go_market/internal/listing"
	"github.com/fjod/go_market/internal/order"
	"github.com/fjod/go_market/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCartRepo struct {
	m     sync.Mutex
	carts map[string]*domain.Cart
}

func (r *memCartRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	c, exists := r.carts[userID]
	if !exists {
		return nil, cart.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (r *memCartRepo) UpsertCart(_ context.Context, c *domain.Cart) error {
	r.m.Lock()
	defer r.m.Unlock()
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	r.carts[c.UserID] = &cp
	return nil
}

func (r *memCartRepo) DeleteCart(_ context.Context, userID string) error {
	r.m.Lock()
	defer r.m.Unlock()
	if _, exists := r.carts[userID]; !exists {
		return cart.ErrCartNotFound
	}
	delete(r.carts, userID)
	return nil
}

type missCache struct{}

func (missCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}

func (missCache) Set(context.Context, string, *domain.Cart) error { return nil }

func (missCache) Delete(context.Context, string) error { return nil }

type memOrderRepo struct {
	m      sync.Mutex
	orders map[string]*domain.Order
}

func (r *memOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.m.Lock()
	defer r.m.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	o, exists := r.orders[id]
	if !exists {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) ListByBuyer(_ context.Context, buyerID string) ([]*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListBySeller(_ context.Context, sellerID string) ([]*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.SellerID == sellerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) MarkPaid(_ context.Context, id, gatewayPaymentID string) (*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	o, exists := r.orders[id]
	if !exists {
		return nil, order.ErrOrderNotFound
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.Status = domain.OrderStatusConfirmed
	if o.TrackingInfo == nil {
		o.TrackingInfo = map[string]string{}
	}
	o.TrackingInfo["paymentId"] = gatewayPaymentID
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetUnprocessedEvents(context.Context, int) ([]*order.OutboxEvent, error) {
	return nil, nil
}

func (r *memOrderRepo) MarkEventAsProcessed(context.Context, int64) error { return nil }

type stubGateway struct{}

func (stubGateway) CreateOrder(_ context.Context, amount float64, currency, _ string) (*payment.GatewayOrder, error) {
	return &payment.GatewayOrder{ID: "gw_1", Amount: amount, Currency: currency}, nil
}

type noopNotifier struct{}

func (noopNotifier) OrderEvent(context.Context, string, string) {}

type testServer struct {
	router   http.Handler
	orders   *memOrderRepo
	verifier *payment.Verifier
}

func newTestServer(t *testing.T, listings ...*domain.Listing) *testServer {
	t.Helper()

	store := listing.NewMemoryStore()
	store.Seed(listings...)

	cartSvc := cart.NewService(&memCartRepo{carts: make(map[string]*domain.Cart)}, missCache{}, store)
	orders := &memOrderRepo{orders: make(map[string]*domain.Order)}
	checkoutSvc := checkout.NewService(cartSvc, store, orders, stubGateway{}, noopNotifier{})
	verifier := payment.NewVerifier("test-secret")
	paymentSvc := payment.NewService(orders, verifier, noopNotifier{})

	engine := jobs.NewEngine(jobs.NewMemoryStore())
	engine.RegisterQueue("notifications", jobs.QueueConfig{})

	router := NewRouter(
		NewCartHandler(cartSvc),
		NewCheckoutHandler(checkoutSvc, paymentSvc),
		NewOrdersHandler(orders),
		engine,
		5*time.Second,
	)

	return &testServer{router: router, orders: orders, verifier: verifier}
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func httpListing(id, seller string, price float64, minOrder int) *domain.Listing {
	return &domain.Listing{
		ID:           id,
		SellerID:     seller,
		Title:        "Listing " + id,
		Price:        price,
		MinimumOrder: minOrder,
		Status:       domain.ListingStatusActive,
	}
}

func httpAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:    "Ramesh Kumar",
		Phone:   "9876543210",
		Line1:   "12 Market Road",
		City:    "Pune",
		State:   "MH",
		Pincode: "411001",
	}
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/cart", "/cart/items", "/orders"} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
	}
}

func TestRouter_HealthIsOpen(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueueStats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/admin/queues/notifications/stats", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/admin/queues/unknown/stats", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCart_EmptyByDefault(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/cart", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	crt := body["cart"].(map[string]interface{})
	assert.Equal(t, 0.0, crt["totalAmount"])
}

func TestAddItem_ReturnsSummary(t *testing.T) {
	ts := newTestServer(t, httpListing("L1", "seller-1", 100, 1))

	rec := ts.do(t, http.MethodPost, "/cart/add", "buyer-1", CartItemRequestDTO{ListingID: "L1", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 200.0, resp.Cart.TotalAmount)
	assert.Equal(t, 2, resp.Cart.ItemCount)
}

func TestAddItem_BadRequests(t *testing.T) {
	ts := newTestServer(t, httpListing("L1", "seller-1", 100, 5))

	rec := ts.do(t, http.MethodPost, "/cart/add", "buyer-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty body")

	rec = ts.do(t, http.MethodPost, "/cart/add", "buyer-1", CartItemRequestDTO{Quantity: 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing listingId")

	rec = ts.do(t, http.MethodPost, "/cart/add", "buyer-1", CartItemRequestDTO{ListingID: "L1", Quantity: 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "below minimum order")

	rec = ts.do(t, http.MethodPost, "/cart/add", "buyer-1", CartItemRequestDTO{ListingID: "missing", Quantity: 2})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown listing")
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, httpListing("L1", "seller-1", 100, 1))

	rec := ts.do(t, http.MethodPost, "/cart/add", "buyer-1", CartItemRequestDTO{ListingID: "L1", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/cart/update", "buyer-1", CartItemRequestDTO{ListingID: "L1", Quantity: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 500.0, resp.Cart.TotalAmount)

	rec = ts.do(t, http.MethodGet, "/cart/items", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items cartItemsEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items.Items, 1)
	assert.Equal(t, 5, items.Items[0].Quantity)

	rec = ts.do(t, http.MethodDelete, "/cart/remove/L1", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/cart/clear", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Cart.ItemCount)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/checkout/create-order", "buyer-1", CreateOrderRequestDTO{
		ShippingAddress: httpAddress(),
		PaymentMethod:   domain.PaymentMethodCashOnDelivery,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_CashOnDeliveryFlow(t *testing.T) {
	ts := newTestServer(t, httpListing("L1", "seller-1", 100, 1), httpListing("L2", "seller-2", 50, 1))

	rec := ts.do(t, http.MethodPost, "/checkout/place-order", "buyer-1", PlaceOrderRequestDTO{
		ShippingAddress: httpAddress(),
		PaymentMethod:   domain.PaymentMethodCashOnDelivery,
		OrderItems: []checkout.OrderItemInput{
			{ListingID: "L1", Quantity: 2},
			{ListingID: "L2", Quantity: 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	orders := body["orders"].([]interface{})
	assert.Len(t, orders, 2)
	result := body["paymentResult"].(map[string]interface{})
	assert.Equal(t, "cash_on_delivery", result["method"])

	rec = ts.do(t, http.MethodGet, "/orders", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeBody(t, rec)["orders"].([]interface{})
	assert.Len(t, mine, 2)

	rec = ts.do(t, http.MethodGet, "/orders/sales", "seller-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sales := decodeBody(t, rec)["orders"].([]interface{})
	assert.Len(t, sales, 1)
}

func TestVerifyPayment_OverHTTP(t *testing.T) {
	ts := newTestServer(t, httpListing("L1", "seller-1", 100, 1))

	rec := ts.do(t, http.MethodPost, "/checkout/place-order", "buyer-1", PlaceOrderRequestDTO{
		ShippingAddress: httpAddress(),
		PaymentMethod:   domain.PaymentMethodGateway,
		OrderItems:      []checkout.OrderItemInput{{ListingID: "L1", Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decodeBody(t, rec)["orders"].([]interface{})
	orderID := placed[0].(map[string]interface{})["id"].(string)

	rec = ts.do(t, http.MethodPost, "/checkout/verify-payment", "buyer-1", VerifyPaymentRequestDTO{
		GatewayOrderID:   "gw_1",
		GatewayPaymentID: "pay_1",
		Signature:        ts.verifier.Signature("gw_1", "pay_1"),
		OrderIDs:         []string{orderID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBody(t, rec)["orders"].([]interface{})
	require.Len(t, updated, 1)
	got := updated[0].(map[string]interface{})
	assert.Equal(t, "paid", got["paymentStatus"])
	assert.Equal(t, "confirmed", got["status"])
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/checkout/verify-payment", "buyer-1", VerifyPaymentRequestDTO{
		GatewayOrderID:   "gw_1",
		GatewayPaymentID: "pay_1",
		Signature:        "deadbeef",
		OrderIDs:         []string{"o1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPayment_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/checkout/verify-payment", "buyer-1", VerifyPaymentRequestDTO{
		GatewayOrderID: "gw_1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware_UserIDRoundtrip(t *testing.T) {
	var got string
	h := AuthMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = getUserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "buyer-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "buyer-1", got)
}

func TestGetUserIDFromContext_IgnoresForeignKeys(t *testing.T) {
	type foreignKey string
	ctx := context.WithValue(context.Background(), foreignKey("user_id"), "spoofed")
	assert.Empty(t, getUserIDFromContext(ctx))
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", fmt.Sprintf("req-%d", 42))
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
}
