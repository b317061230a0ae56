package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated means the session has no usable token. It is raised
	// before any network call and is never retried.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNoCart means the backend answered without cart data, which it does
	// before the first item is added.
	ErrNoCart = errors.New("no cart data found")

	ErrMenuMismatch      = errors.New("cart holds items from a different menu")
	ErrMaxQuantity       = errors.New("maximum quantity reached")
	ErrLineBusy          = errors.New("cart line is being updated")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrNoCanteenSelected = errors.New("no canteen selected")
	ErrNoDateSelected    = errors.New("no order date selected")

	// ErrNoMenu means an item not yet in the cart was incremented without
	// naming the menu it comes from.
	ErrNoMenu = errors.New("no menu given for an item not in the cart")
)

// MenuMismatchReason is the backend message for a cross-menu add.
const MenuMismatchReason = "Menu is Different. Please select items from same menu"

// RejectedError is a validation rejection from the backend. It covers both
// 4xx responses and 200 responses whose body carries an errors array.
type RejectedError struct {
	StatusCode int
	Reason     string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("rejected with status %d", e.StatusCode)
	}
	return e.Reason
}

// Is lets errors.Is(err, ErrMenuMismatch) match the cross-menu rejection.
func (e *RejectedError) Is(target error) bool {
	return target == ErrMenuMismatch && strings.EqualFold(strings.TrimSpace(e.Reason), MenuMismatchReason)
}

// TransportError wraps network failures and 5xx responses.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRejected
	OutcomeTransportError
	OutcomeUnauthenticated
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Outcome is the uniform result every caller of the cart facade inspects.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

// OutcomeOf classifies err. Errors that are neither rejections nor
// authentication failures count as transport errors.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}

	if errors.Is(err, ErrUnauthenticated) {
		return Outcome{Kind: OutcomeUnauthenticated, Reason: err.Error(), Err: err}
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return Outcome{Kind: OutcomeRejected, Reason: rejected.Reason, Err: err}
	}

	for _, local := range []error{ErrMaxQuantity, ErrLineBusy, ErrNoCanteenSelected, ErrNoDateSelected, ErrLineNotFound, ErrNoMenu} {
		if errors.Is(err, local) {
			return Outcome{Kind: OutcomeRejected, Reason: local.Error(), Err: err}
		}
	}

	return Outcome{Kind: OutcomeTransportError, Reason: err.Error(), Err: err}
}
