package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/cocreate/store/memory"
	storemocks "github.com/zlnvch/cocreate/store/mocks"
	"github.com/zlnvch/cocreate/worker"
)

const testLeaseTTL = 150 * time.Millisecond

func TestInstanceLease_SecondServerWaitsForFirst(t *testing.T) {
	shared := memory.NewMemoryStore()
	first := worker.NewInstanceLease(shared, "server-a", testLeaseTTL)
	second := worker.NewInstanceLease(shared, "server-b", testLeaseTTL)

	require.NoError(t, first.Acquire(context.Background()))

	holdCtx, stopHolding := context.WithCancel(context.Background())
	held := make(chan struct{})
	go func() {
		defer close(held)
		first.Hold(holdCtx, func() { t.Error("first server lost its lease") })
	}()

	// Renewals keep the lease alive well past its ttl
	waitCtx, cancel := context.WithTimeout(context.Background(), 4*testLeaseTTL)
	defer cancel()
	assert.Error(t, second.Acquire(waitCtx))

	stopHolding()
	waitFor(t, held)

	acquireCtx, cancelAcquire := context.WithTimeout(context.Background(), time.Second)
	defer cancelAcquire()
	assert.NoError(t, second.Acquire(acquireCtx))
}

func TestInstanceLease_TakesOverExpiredLease(t *testing.T) {
	shared := memory.NewMemoryStore()
	crashed := worker.NewInstanceLease(shared, "server-a", testLeaseTTL)
	require.NoError(t, crashed.Acquire(context.Background()))

	// server-a never renews
	next := worker.NewInstanceLease(shared, "server-b", testLeaseTTL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, next.Acquire(ctx))
}

func TestInstanceLease_LostWhenTakenOver(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockStore.On("AcquireLease", mock.Anything, worker.InstanceLeaseKey, "server-a", testLeaseTTL).Return(false, nil)

	lease := worker.NewInstanceLease(mockStore, "server-a", testLeaseTTL)
	lost := make(chan struct{})
	go lease.Hold(context.Background(), func() { close(lost) })

	waitFor(t, lost)
	mockStore.AssertNotCalled(t, "ReleaseLease", mock.Anything, mock.Anything, mock.Anything)
}

func TestInstanceLease_SurvivesBriefRenewFailure(t *testing.T) {
	ttl := 300 * time.Millisecond
	mockStore := new(storemocks.MockStore)
	mockStore.On("AcquireLease", mock.Anything, worker.InstanceLeaseKey, "server-a", ttl).
		Return(false, errors.New("timeout")).Once()
	renewed := wrapMockWithSignal(
		mockStore.On("AcquireLease", mock.Anything, worker.InstanceLeaseKey, "server-a", ttl).Return(true, nil).Once(),
	)
	mockStore.On("AcquireLease", mock.Anything, worker.InstanceLeaseKey, "server-a", ttl).Return(true, nil)
	mockStore.On("ReleaseLease", mock.Anything, worker.InstanceLeaseKey, "server-a").Return(nil)

	lease := worker.NewInstanceLease(mockStore, "server-a", ttl)
	ctx, cancel := context.WithCancel(context.Background())
	held := make(chan struct{})
	go func() {
		defer close(held)
		lease.Hold(ctx, func() { t.Error("lease reported lost after one failure") })
	}()

	waitFor(t, renewed)
	cancel()
	waitFor(t, held)
	mockStore.AssertCalled(t, "ReleaseLease", mock.Anything, worker.InstanceLeaseKey, "server-a")
}

func TestInstanceLease_LostAfterFailingForWholeTTL(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockStore.On("AcquireLease", mock.Anything, worker.InstanceLeaseKey, "server-a", testLeaseTTL).
		Return(false, errors.New("connection refused"))

	lease := worker.NewInstanceLease(mockStore, "server-a", testLeaseTTL)
	lost := make(chan struct{})
	go lease.Hold(context.Background(), func() { close(lost) })

	waitFor(t, lost)
}
