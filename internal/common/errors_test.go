package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	inner := errors.New("SHOPIFY_SHOP is not set")
	err := NewUserError("configuration incomplete", inner)

	assert.Equal(t, "configuration incomplete: SHOPIFY_SHOP is not set", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewUserError("nothing to do", nil)
	assert.Equal(t, "nothing to do", bare.Error())
}

func TestHTTPStatusError(t *testing.T) {
	err := &HTTPStatusError{StatusCode: 403, URL: "https://shop.test/graphql.json", Body: "denied"}

	assert.Equal(t, "HTTP 403 from https://shop.test/graphql.json: denied", err.Error())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var target *HTTPStatusError
	assert.True(t, errors.As(Transient(err), &target))
	assert.Equal(t, 403, target.StatusCode)
}

func TestProtocolError(t *testing.T) {
	err := &ProtocolError{Messages: []string{"Field 'foo' doesn't exist"}}

	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "Field 'foo' doesn't exist")
}
