package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/internal/customers"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
	"github.com/momtazchem/commerce-backend/pkg/logger"
)

// Service records notifications and hands them to the delivery
// pipeline. The record is written first; dispatch failures are logged
// and retried by the downstream worker, never surfaced to the caller.
type Service interface {
	NotifyOrder(ctx context.Context, input OrderNotificationInput) (bool, error)
	NotifyCart(ctx context.Context, input CartNotificationInput) (bool, error)
}

// OrderNotificationInput describes an order-scoped message.
type OrderNotificationInput struct {
	OrderID     uuid.UUID
	CustomerID  uuid.UUID
	OrderNumber string
	Type        enums.NotificationType
	Detail      string
}

// CartNotificationInput describes a cart-scoped message.
type CartNotificationInput struct {
	CartSessionID uuid.UUID
	CustomerID    uuid.UUID
	Type          enums.NotificationType
}

type service struct {
	repo       Repository
	customers  customers.Repository
	dispatcher Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

// Params collects notify service dependencies.
type Params struct {
	Repo       Repository
	Customers  customers.Repository
	Dispatcher Dispatcher
	Logger     *logger.Logger
	Now        func() time.Time
}

// NewService wires notification dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notify repository required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer repository required")
	}
	if params.Dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification dispatcher required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:       params.Repo,
		customers:  params.Customers,
		dispatcher: params.Dispatcher,
		log:        params.Logger,
		now:        params.Now,
	}, nil
}

// NotifyOrder sends an order-scoped message unless one of the same type
// was already recorded for the order. It reports whether a new
// notification was recorded.
func (s *service) NotifyOrder(ctx context.Context, input OrderNotificationInput) (bool, error) {
	if input.OrderID == uuid.Nil || input.CustomerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order and customer ids required")
	}
	if !input.Type.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	exists, err := s.repo.HasForOrder(ctx, input.OrderID, input.Type)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification record")
	}
	if exists {
		return false, nil
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "notification recipient not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve notification recipient")
	}

	title, message := renderOrderMessage(input.Type, input.OrderNumber, input.Detail)
	record := &models.Notification{
		ID:         uuid.New(),
		OrderID:    &input.OrderID,
		CustomerID: input.CustomerID,
		Type:       input.Type,
		Channel:    channelFor(input.Type),
		Title:      title,
		Message:    message,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification")
	}

	s.dispatch(ctx, record, recipientFor(customer, record.Channel), input.OrderNumber)
	return true, nil
}

// NotifyCart sends a cart-scoped message with the same dedup guard.
func (s *service) NotifyCart(ctx context.Context, input CartNotificationInput) (bool, error) {
	if input.CartSessionID == uuid.Nil || input.CustomerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "cart session and customer ids required")
	}
	if !input.Type.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	exists, err := s.repo.HasForCart(ctx, input.CartSessionID, input.Type)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification record")
	}
	if exists {
		return false, nil
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "notification recipient not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve notification recipient")
	}

	title, message := renderCartMessage(input.Type)
	record := &models.Notification{
		ID:            uuid.New(),
		CartSessionID: &input.CartSessionID,
		CustomerID:    input.CustomerID,
		Type:          input.Type,
		Channel:       channelFor(input.Type),
		Title:         title,
		Message:       message,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification")
	}

	s.dispatch(ctx, record, recipientFor(customer, record.Channel), "")
	return true, nil
}

func (s *service) dispatch(ctx context.Context, record *models.Notification, recipient, orderNumber string) {
	event := Event{
		NotificationID: record.ID,
		CustomerID:     record.CustomerID,
		Recipient:      recipient,
		Type:           record.Type,
		Channel:        record.Channel,
		Title:          record.Title,
		Message:        record.Message,
		OrderNumber:    orderNumber,
	}
	if err := s.dispatcher.Send(ctx, event); err != nil {
		s.log.Warn(ctx, fmt.Sprintf("notification dispatch failed: %v", err))
		return
	}
	if err := s.repo.MarkSent(ctx, record.ID, s.now()); err != nil {
		s.log.Warn(ctx, fmt.Sprintf("mark notification sent failed: %v", err))
	}
}

// Urgent reminders go over SMS; everything else is email.
func channelFor(notificationType enums.NotificationType) enums.NotificationChannel {
	if notificationType == enums.NotificationTypeUrgentReminder {
		return enums.NotificationChannelSMS
	}
	return enums.NotificationChannelEmail
}

func recipientFor(customer *models.Customer, channel enums.NotificationChannel) string {
	if channel == enums.NotificationChannelSMS && customer.Phone != nil && *customer.Phone != "" {
		return *customer.Phone
	}
	return customer.Email
}

func renderOrderMessage(notificationType enums.NotificationType, orderNumber, detail string) (string, string) {
	switch notificationType {
	case enums.NotificationTypeUrgentReminder:
		return "Payment deadline approaching",
			fmt.Sprintf("Order %s will be cancelled soon. Upload your payment receipt before the deadline.", orderNumber)
	case enums.NotificationTypeReceiptReceived:
		return "Receipt received",
			fmt.Sprintf("We received the payment receipt for order %s. It is now under financial review.", orderNumber)
	case enums.NotificationTypeReceiptApproved:
		return "Payment confirmed",
			fmt.Sprintf("The payment for order %s was confirmed. Your order is being prepared.", orderNumber)
	case enums.NotificationTypeReceiptRejected:
		message := fmt.Sprintf("The payment receipt for order %s was rejected.", orderNumber)
		if detail != "" {
			message += " " + detail
		}
		return "Receipt rejected", message + " Please upload a corrected receipt."
	case enums.NotificationTypeOrderCancelled:
		message := fmt.Sprintf("Order %s was cancelled.", orderNumber)
		if detail != "" {
			message += " " + detail
		}
		return "Order cancelled", message
	default:
		return "Order update", fmt.Sprintf("There is an update on order %s.", orderNumber)
	}
}

func renderCartMessage(notificationType enums.NotificationType) (string, string) {
	switch notificationType {
	case enums.NotificationTypeFirstReminder:
		return "Your cart is waiting", "You left items in your cart. Complete your order before they are released."
	case enums.NotificationTypeSecondReminder:
		return "Your cart is about to expire", "The items in your cart will be released soon. Complete your order to keep them."
	default:
		return "Cart update", "There is an update on your cart."
	}
}
