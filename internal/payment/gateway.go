package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// GatewayOrder is the client-facing handle for a hosted payment: the
// buyer completes payment against this id on the gateway's side.
type GatewayOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Gateway creates one aggregated gateway order for an entire checkout
// total. The gateway's own internals are out of scope.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error)
}

type httpGateway struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker
}

// NewHTTPGateway builds a gateway client over the hosted provider's
// REST API, guarded by a circuit breaker so a flapping gateway fails
// checkout fast instead of piling up blocked requests.
func NewHTTPGateway(baseURL, keyID, keySecret string) Gateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	return &httpGateway{client: client, cb: cb}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (g *httpGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		var out createOrderResponse
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(createOrderRequest{
				Amount:   int64(amount * 100),
				Currency: currency,
				Receipt:  receipt,
			}).
			SetResult(&out).
			Post("/v1/orders")
		if err != nil {
			return nil, fmt.Errorf("gateway create order call: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("gateway create order returned %v: %v", resp.StatusCode(), resp.String())
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	out := result.(*createOrderResponse)
	return &GatewayOrder{
		ID:       out.ID,
		Amount:   float64(out.Amount) / 100,
		Currency: out.Currency,
	}, nil
}
