package payments

import (
	"github.com/lexorahq/lexora-backend/pkg/db/models"
	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
)

// Authorize decides whether the actor may perform a state-changing operation
// on the payment. Only the payer is ever authorized; the check compares
// identifier values, never references. Messages are stable, user-visible
// strings.
func Authorize(actor *models.User, payment *models.EscrowPayment, operation string) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "User is not authenticated")
	}
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Payment with this id not found")
	}
	if actor.ID != payment.PayerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to "+operation)
	}
	return nil
}
