package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	s := NewService(time.UTC, log.Default())

	assert.Error(t, s.Register("", "* * * * *", func(context.Context) error { return nil }))
	assert.Error(t, s.Register("job", "", func(context.Context) error { return nil }))
	assert.Error(t, s.Register("job", "* * * * *", nil))
	assert.Error(t, s.Register("job", "not a schedule", func(context.Context) error { return nil }))
	assert.NoError(t, s.Register("job", "* * * * *", func(context.Context) error { return nil }))
}

func TestRegisterReplacesExisting(t *testing.T) {
	s := NewService(time.UTC, log.Default())
	require.NoError(t, s.Register("job", "* * * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.Register("job", "*/5 * * * *", func(context.Context) error { return nil }))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "*/5 * * * *", jobs[0].Schedule)
}

func TestRunJobRecordsStatus(t *testing.T) {
	s := NewService(time.UTC, log.Default())
	require.NoError(t, s.Register("ok", "* * * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.Register("bad", "* * * * *", func(context.Context) error { return nil }))

	s.runJob("ok", func(context.Context) error { return nil })
	s.runJob("bad", func(context.Context) error { return fmt.Errorf("boom") })

	bySlug := map[string]Job{}
	for _, j := range s.Jobs() {
		bySlug[j.Slug] = j
	}
	assert.Equal(t, statusSuccess, bySlug["ok"].LastStatus)
	assert.Equal(t, statusFailed, bySlug["bad"].LastStatus)
	assert.Equal(t, "boom", bySlug["bad"].LastError)
	assert.False(t, bySlug["ok"].LastRunAt.IsZero())
}

func TestStartStop(t *testing.T) {
	s := NewService(time.UTC, log.Default())
	var runs atomic.Int32
	require.NoError(t, s.Register("tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	// @every intervals are second-granular, so wait for the first firing
	// instead of sleeping a fixed interval.
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	s.Stop()
	// Stop is idempotent.
	s.Stop()
}
