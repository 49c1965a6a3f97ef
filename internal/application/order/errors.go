package order

import (
	"errors"
	"strings"
)

// Kind classifies why an order operation was rejected.
type Kind int

const (
	KindInvalidRequest Kind = iota + 1
	KindNotFound
	KindInsufficientStock
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrInvalidRequest    = errors.New("order: invalid request")
	ErrNotFound          = errors.New("order: not found")
	ErrInsufficientStock = errors.New("order: insufficient stock")
	ErrRepository        = errors.New("order: repository failure")
)

// Error is the rejection returned by the order use cases. ProductIDs lists the
// products that caused a NotFound or InsufficientStock rejection.
type Error struct {
	Kind       Kind
	Message    string
	ProductIDs []string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("order: ")
	b.WriteString(e.Message)
	if len(e.ProductIDs) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.ProductIDs, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidRequest:
		return e.Kind == KindInvalidRequest
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInsufficientStock:
		return e.Kind == KindInsufficientStock
	}
	return false
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func invalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

func notFound(msg string, ids []string) *Error {
	return &Error{Kind: KindNotFound, Message: msg, ProductIDs: ids}
}

func insufficientStock(msg string, ids []string, cause error) *Error {
	return &Error{Kind: KindInsufficientStock, Message: msg, ProductIDs: ids, Err: cause}
}
