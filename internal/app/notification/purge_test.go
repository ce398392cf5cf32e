package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type purgeRepoStub struct {
	mu      sync.Mutex
	calls   int
	cutoffs []time.Time
}

func (s *purgeRepoStub) PurgeRead(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.cutoffs = append(s.cutoffs, olderThan)
	return 3, nil
}

func TestPurger_BadScheduleFailsStart(t *testing.T) {
	p := NewPurger(&purgeRepoStub{}, "not a schedule", zap.NewNop())
	require.Error(t, p.Start())
}

func TestPurger_RunUsesRetentionCutoff(t *testing.T) {
	stub := &purgeRepoStub{}
	p := NewPurger(stub, "0 0 * * *", zap.NewNop())

	p.run()

	require.Equal(t, 1, stub.calls)
	want := time.Now().Add(-retention)
	require.WithinDuration(t, want, stub.cutoffs[0], time.Second)
}

func TestPurger_StartStop(t *testing.T) {
	p := NewPurger(&purgeRepoStub{}, "0 0 * * *", zap.NewNop())
	require.NoError(t, p.Start())
	p.Stop()
}
