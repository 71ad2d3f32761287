package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
)

func TestParseScheduleSixField(t *testing.T) {
	_, reboot, err := ParseSchedule("*/30 * * * * *")
	require.NoError(t, err)
	assert.False(t, reboot)
}

func TestParseScheduleFiveFieldPrependsSeconds(t *testing.T) {
	_, reboot, err := ParseSchedule("* * * * *")
	require.NoError(t, err)
	assert.False(t, reboot)
}

func TestParseScheduleEveryToken(t *testing.T) {
	_, reboot, err := ParseSchedule("@every 30s")
	require.NoError(t, err)
	assert.False(t, reboot)
}

func TestParseScheduleReboot(t *testing.T) {
	sched, reboot, err := ParseSchedule("@reboot")
	require.NoError(t, err)
	assert.True(t, reboot)
	assert.Nil(t, sched)
}

func TestParseScheduleInvalidIsConfigurationError(t *testing.T) {
	_, _, err := ParseSchedule("not a schedule")
	require.Error(t, err)
	assert.True(t, gwerrors.Is(err, gwerrors.KindConfiguration))
}

func TestParseScheduleHourly(t *testing.T) {
	_, reboot, err := ParseSchedule("@hourly")
	require.NoError(t, err)
	assert.False(t, reboot)
}
