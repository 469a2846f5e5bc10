package models

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionJobStatus(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{JobStatusPending, JobStatusAssigned, true},
		{JobStatusPending, JobStatusCancelled, true},
		{JobStatusPending, JobStatusExpired, true},
		{JobStatusAssigned, JobStatusInProgress, true},
		{JobStatusAssigned, JobStatusCancelled, true},
		{JobStatusInProgress, JobStatusCompleted, true},

		{JobStatusPending, JobStatusInProgress, false},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusAssigned, JobStatusCompleted, false},
		{JobStatusAssigned, JobStatusExpired, false},
		{JobStatusInProgress, JobStatusCancelled, false},
		{JobStatusCompleted, JobStatusPending, false},
		{JobStatusCancelled, JobStatusAssigned, false},
		{JobStatusExpired, JobStatusAssigned, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionJobStatus(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsTerminalJobStatus(t *testing.T) {
	assert.True(t, IsTerminalJobStatus(JobStatusCompleted))
	assert.True(t, IsTerminalJobStatus(JobStatusCancelled))
	assert.True(t, IsTerminalJobStatus(JobStatusExpired))
	assert.False(t, IsTerminalJobStatus(JobStatusPending))
	assert.False(t, IsTerminalJobStatus(JobStatusAssigned))
	assert.False(t, IsTerminalJobStatus(JobStatusInProgress))
}

func TestJob_IsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	job := Job{Status: JobStatusPending, ExpiresAt: &past}
	assert.True(t, job.IsExpired(now))

	job.ExpiresAt = &future
	assert.False(t, job.IsExpired(now))

	// Без срока заявка не истекает
	job.ExpiresAt = nil
	assert.False(t, job.IsExpired(now))
}

func TestProvider_CanTakeJobs(t *testing.T) {
	p := Provider{Status: ProviderStatusVerified, IsAvailable: true, IsActive: true}
	assert.True(t, p.CanTakeJobs())

	p.Status = ProviderStatusPending
	assert.False(t, p.CanTakeJobs())

	p.Status = ProviderStatusVerified
	p.IsAvailable = false
	assert.False(t, p.CanTakeJobs())

	p.IsAvailable = true
	p.IsActive = false
	assert.False(t, p.CanTakeJobs())
}

func TestProvider_ServesJobType(t *testing.T) {
	p := Provider{JobTypes: pq.StringArray{JobTypeSnowRemoval, JobTypePlumbing}}
	assert.True(t, p.ServesJobType(JobTypeSnowRemoval))
	assert.False(t, p.ServesJobType(JobTypeElectrical))
}
