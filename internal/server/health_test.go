package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/masallsome/gwsyncer/pkg/model"
)

func TestComputeHealthUpWhenNoJobs(t *testing.T) {
	resp, code := computeHealth(nil, time.Now(), time.Now())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, 0, resp.Total)
}

func TestComputeHealthUpWhenAllRunning(t *testing.T) {
	now := time.Now()
	jobs := []model.Job{
		{TargetID: "t1", MaximumIntervalSec: 60, LastTime: now.Unix()},
		{TargetID: "t2", MaximumIntervalSec: 60, LastTime: now.Unix()},
	}
	resp, code := computeHealth(jobs, now.Add(-time.Hour), now)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, 2, resp.Running)
	assert.Equal(t, 0, resp.Lost)
}

func TestComputeHealthDownWhenAllLost(t *testing.T) {
	now := time.Now()
	stale := now.Add(-time.Hour).Unix()
	jobs := []model.Job{
		{TargetID: "t1", MaximumIntervalSec: 30, LastTime: stale},
	}
	resp, code := computeHealth(jobs, now.Add(-2*time.Hour), now)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "DOWN", resp.Status)
	assert.Equal(t, 1, resp.Lost)
	assert.Equal(t, 0, resp.Running)
}

func TestComputeHealthWarnWhenMixed(t *testing.T) {
	now := time.Now()
	stale := now.Add(-time.Hour).Unix()
	jobs := []model.Job{
		{TargetID: "t1", MaximumIntervalSec: 30, LastTime: stale},
		{TargetID: "t2", MaximumIntervalSec: 30, LastTime: now.Unix()},
	}
	resp, code := computeHealth(jobs, now.Add(-2*time.Hour), now)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "WARN", resp.Status)
	assert.Equal(t, 1, resp.Lost)
	assert.Equal(t, 1, resp.Running)
}

func TestComputeHealthIgnoresIntervalOfZero(t *testing.T) {
	now := time.Now()
	jobs := []model.Job{
		{TargetID: "t1", MaximumIntervalSec: 0, LastTime: now.Add(-24 * time.Hour).Unix()},
	}
	resp, code := computeHealth(jobs, now.Add(-time.Hour), now)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, 0, resp.Lost)
}
