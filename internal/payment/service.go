package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/order"
)

// Notifier is the slice of the notification dispatcher this service
// needs. The dispatcher itself never fails; it only logs per-channel
// outcomes.
type Notifier interface {
	OrderEvent(ctx context.Context, orderID, eventType string)
}

type Service struct {
	orders   order.Repository
	verifier *Verifier
	notifier Notifier
}

func NewService(orders order.Repository, verifier *Verifier, notifier Notifier) *Service {
	return &Service{
		orders:   orders,
		verifier: verifier,
		notifier: notifier,
	}
}

// VerifyPayment checks the gateway callback signature and, on match,
// transitions every referenced order to paid/confirmed. A signature
// mismatch fails closed: no order is touched. Order ids that do not
// resolve are skipped; callers can compare the returned orders against
// the ids they sent. A replayed callback for an already-paid order is a
// no-op for that order; a cancelled or otherwise non-confirmable order
// rejects the call.
func (s *Service) VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, orderIDs []string) ([]*domain.Order, error) {
	if !s.verifier.Verify(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, domain.ErrInvalidSignature
	}

	updated := make([]*domain.Order, 0, len(orderIDs))
	confirmed := make([]*domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		current, err := s.orders.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, order.ErrOrderNotFound) {
				log.Printf("payment verification skipped unknown order id = %v", id)
				continue
			}
			return nil, fmt.Errorf("failed to load order %v: %w", id, err)
		}

		if current.PaymentStatus == domain.PaymentStatusPaid {
			updated = append(updated, current)
			continue
		}
		if !current.Status.CanTransitionTo(domain.OrderStatusConfirmed) {
			return nil, fmt.Errorf("%w: order %v in status %v cannot be confirmed", domain.ErrConflict, id, current.Status)
		}

		o, err := s.orders.MarkPaid(ctx, id, gatewayPaymentID)
		if err != nil {
			if errors.Is(err, order.ErrOrderNotFound) {
				log.Printf("payment verification skipped unknown order id = %v", id)
				continue
			}
			return nil, fmt.Errorf("failed to mark order %v paid: %w", id, err)
		}
		updated = append(updated, o)
		confirmed = append(confirmed, o)
	}

	for _, o := range confirmed {
		s.notifier.OrderEvent(ctx, o.ID, "confirmed")
	}

	return updated, nil
}
