package enums

// EscrowStatus tracks where a payment sits in the hold-and-release lifecycle.
type EscrowStatus string

const (
	EscrowStatusPending EscrowStatus = "pending"
	EscrowStatusPaid    EscrowStatus = "paid"
	// EscrowStatusRefunded is reserved for a future refund path; no operation
	// transitions into it today.
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusCanceled EscrowStatus = "canceled"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s EscrowStatus) IsValid() bool {
	switch s {
	case EscrowStatusPending, EscrowStatusPaid, EscrowStatusReleased,
		EscrowStatusRefunded, EscrowStatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether the payment can never transition again.
func (s EscrowStatus) IsTerminal() bool {
	switch s {
	case EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusCanceled:
		return true
	}
	return false
}

// EscrowEventType labels the immutable audit events recorded per transition.
type EscrowEventType string

const (
	EscrowEventCreated  EscrowEventType = "payment_created"
	EscrowEventPaid     EscrowEventType = "payment_completed"
	EscrowEventReleased EscrowEventType = "funds_released"
	EscrowEventCanceled EscrowEventType = "payment_canceled"
)

// IsValid reports whether the event type is known.
func (t EscrowEventType) IsValid() bool {
	switch t {
	case EscrowEventCreated, EscrowEventPaid, EscrowEventReleased, EscrowEventCanceled:
		return true
	}
	return false
}

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypePayment NotificationType = "payment"
	NotificationTypeSystem  NotificationType = "system"
)
