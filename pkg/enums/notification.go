package enums

import "fmt"

// NotificationType names the customer-facing message kinds the
// reconciliation passes and review surface emit. Existence of a record
// with a given (order, type) pair guards duplicate sends.
type NotificationType string

const (
	NotificationTypeFirstReminder   NotificationType = "first_reminder"
	NotificationTypeSecondReminder  NotificationType = "second_reminder"
	NotificationTypeUrgentReminder  NotificationType = "urgent_reminder"
	NotificationTypeReceiptReceived NotificationType = "receipt_received"
	NotificationTypeReceiptApproved NotificationType = "receipt_approved"
	NotificationTypeReceiptRejected NotificationType = "receipt_rejected"
	NotificationTypeOrderCancelled  NotificationType = "order_cancelled"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeFirstReminder,
	NotificationTypeSecondReminder,
	NotificationTypeUrgentReminder,
	NotificationTypeReceiptReceived,
	NotificationTypeReceiptApproved,
	NotificationTypeReceiptRejected,
	NotificationTypeOrderCancelled,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationChannel is the delivery medium for a notification.
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelEmail,
	NotificationChannelSMS,
}

// String implements fmt.Stringer.
func (c NotificationChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known NotificationChannel.
func (c NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == c {
			return true
		}
	}
	return false
}
