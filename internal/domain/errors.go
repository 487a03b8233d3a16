package domain

// Error is a domain failure carrying a stable machine-readable code.
type Error struct {
	code string
	msg  string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.msg }

// Code returns the stable error code used in logs and routing.
func (e *Error) Code() string { return e.code }

var (
	// ErrCollectionNotFound signals the referenced collection does not exist.
	ErrCollectionNotFound = &Error{code: "COLLECTION_NOT_FOUND", msg: "collection not found"}
	// ErrPaymentNotFound signals the referenced payment does not exist.
	ErrPaymentNotFound = &Error{code: "PAYMENT_NOT_FOUND", msg: "payment not found"}
	// ErrNotActive signals an operation that requires an active collection.
	ErrNotActive = &Error{code: "COLLECTION_NOT_ACTIVE", msg: "collection is not active"}
	// ErrInvalidAmount signals a non-positive amount.
	ErrInvalidAmount = &Error{code: "INVALID_AMOUNT", msg: "amount must be greater than zero"}
	// ErrInvalidDeadline signals a deadline that is not strictly in the future.
	ErrInvalidDeadline = &Error{code: "INVALID_DEADLINE", msg: "deadline must be in the future"}
	// ErrEmptyTitle signals a collection title with no content.
	ErrEmptyTitle = &Error{code: "EMPTY_TITLE", msg: "title must not be empty"}
	// ErrNotPending signals an approval attempt on a non-pending payment.
	ErrNotPending = &Error{code: "PAYMENT_NOT_PENDING", msg: "payment is not pending"}
	// ErrNotCreator signals an operation reserved for the collection creator.
	ErrNotCreator = &Error{code: "NOT_CREATOR", msg: "only the collection creator may do this"}
)
