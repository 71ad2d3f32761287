package kong

import (
	"testing"

	"github.com/stretchr/testify/assert"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
)

func TestSplitTarget(t *testing.T) {
	ip, port := splitTarget("10.0.0.1:8080")
	assert.Equal(t, "10.0.0.1", ip)
	assert.Equal(t, 8080, port)
}

func TestUnrealizedOperations(t *testing.T) {
	k := &Kong{}
	_, _, err := k.FetchAdminAPIToFile("")
	assert.True(t, gwerrors.Is(err, gwerrors.KindUnrealized))

	err = k.MigrateTo(nil)
	assert.True(t, gwerrors.Is(err, gwerrors.KindUnrealized))

	err = k.RestoreGateway(nil)
	assert.True(t, gwerrors.Is(err, gwerrors.KindUnrealized))
}

func TestSubstituteTargetTemplate(t *testing.T) {
	out := substitute(defaultTargetTemplate, "10.0.0.1:8080", 5)
	assert.Equal(t, `{"target": "10.0.0.1:8080", "weight": 5}`, out)
}

func TestNewRequiresAdminURL(t *testing.T) {
	_, err := New(map[string]any{})
	assert.Error(t, err)
}
