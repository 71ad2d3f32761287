package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusNotFound, DriverNotFound("discovery", "nacos-a").HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, AliveGuard(2, 1).HTTPStatus())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Remote("apisix", cause)
	assert.ErrorIs(t, e, cause)
}

func TestIs(t *testing.T) {
	e := Unrealized("kong", "migrate_to")
	assert.True(t, Is(e, KindUnrealized))
	assert.False(t, Is(e, KindRemote))
}
