package cart

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a cart mutation failed. The exported mutation methods
// only report success or failure; Kind keeps the cause for logs and tests.
type Kind uint8

const (
	KindOK Kind = iota
	KindNotFound
	KindInsufficientStock
	KindInvalidQuantity
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidQuantity:
		return "invalid_quantity"
	case KindStorage:
		return "storage"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a classified cart failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err. Unclassified errors count as storage
// failures; nil is KindOK.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindStorage
}

func notFound(op, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Op: op, Err: errors.Errorf(format, args...)}
}

func storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}
