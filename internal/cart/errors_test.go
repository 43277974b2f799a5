package cart

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOK, KindOf(nil))
	assert.Equal(t, KindStorage, KindOf(errors.New("disk on fire")))
	assert.Equal(t, KindNotFound, KindOf(notFound("remove", "no cart for %s", "u1")))

	wrapped := errors.Wrap(&Error{Kind: KindInsufficientStock, Op: "add"}, "outer")
	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))

	cause := errors.New("constraint")
	err := storage("add", cause)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "add: storage: constraint", err.Error())
	assert.Equal(t, "insufficient_stock", KindInsufficientStock.String())
}
