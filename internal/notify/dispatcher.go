package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/fjod/go_market/internal/jobs"
	"github.com/fjod/go_market/internal/listing"
	"github.com/fjod/go_market/internal/order"
)

// Order event types the dispatcher knows templates for.
const (
	EventCreated   = "created"
	EventConfirmed = "confirmed"
	EventShipped   = "shipped"
	EventDelivered = "delivered"
	EventCancelled = "cancelled"
)

// QueueName is the engine queue carrying notification channel jobs.
const QueueName = "notifications"

// User is the contact view resolved from the external user directory.
type User struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Directory resolves user contact details; owned by the auth/user
// system outside this service.
type Directory interface {
	Get(ctx context.Context, userID string) (*User, error)
}

// Dispatcher fans one logical order event out to independent channel
// jobs. Channels are isolated: a failed SMS enqueue never retracts the
// email job, and the dispatcher itself never fails the caller -- it
// only logs per-channel outcomes. Delivery results surface through the
// job engine's retry count and status, not here.
type Dispatcher struct {
	orders   order.Repository
	listings listing.Store
	users    Directory
	engine   *jobs.Engine
}

func NewDispatcher(orders order.Repository, listings listing.Store, users Directory, engine *jobs.Engine) *Dispatcher {
	return &Dispatcher{
		orders:   orders,
		listings: listings,
		users:    users,
		engine:   engine,
	}
}

func (d *Dispatcher) OrderEvent(ctx context.Context, orderID, eventType string) {
	o, err := d.orders.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("notify: failed to load order %v: %v", orderID, err)
		return
	}

	// The seller hears about new orders; every later event goes to the
	// buyer.
	recipientID := o.BuyerID
	if eventType == EventCreated {
		recipientID = o.SellerID
	}

	recipient, err := d.users.Get(ctx, recipientID)
	if err != nil {
		log.Printf("notify: failed to resolve recipient %v for order %v: %v", recipientID, orderID, err)
		return
	}

	title := "your order"
	if lst, errListing := d.listings.Get(ctx, o.ListingID); errListing == nil {
		title = lst.Title
	}

	subject, message := buildMessage(eventType, title, o.Quantity, o.TotalAmount)

	if recipient.Email != "" {
		_, errEmail := d.engine.Enqueue(ctx, QueueName, JobTypeEmail, EmailJob{
			To:      recipient.Email,
			Subject: subject,
			Body:    message,
		}, jobs.Options{})
		if errEmail != nil {
			log.Printf("notify: failed to enqueue email for order %v: %v", orderID, errEmail)
		}
	}

	if recipient.Phone != "" {
		_, errSMS := d.engine.Enqueue(ctx, QueueName, JobTypeSMS, SMSJob{
			Phone:   recipient.Phone,
			Message: message,
		}, jobs.Options{})
		if errSMS != nil {
			log.Printf("notify: failed to enqueue sms for order %v: %v", orderID, errSMS)
		}
	}
}

func buildMessage(eventType, title string, quantity int, total float64) (subject, message string) {
	switch eventType {
	case EventCreated:
		return "New order received",
			fmt.Sprintf("You have a new order: %s x%d for %.2f. Confirm it from your seller dashboard.", title, quantity, total)
	case EventConfirmed:
		return "Order confirmed",
			fmt.Sprintf("Payment received for %s x%d. The seller is preparing your order.", title, quantity)
	case EventShipped:
		return "Order shipped",
			fmt.Sprintf("Your order %s x%d is on its way.", title, quantity)
	case EventDelivered:
		return "Order delivered",
			fmt.Sprintf("Your order %s x%d was delivered. Thanks for shopping with us.", title, quantity)
	case EventCancelled:
		return "Order cancelled",
			fmt.Sprintf("Your order %s x%d was cancelled.", title, quantity)
	default:
		return "Order update", fmt.Sprintf("There is an update on your order %s x%d.", title, quantity)
	}
}
