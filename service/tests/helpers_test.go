package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	mqmocks "github.com/zlnvch/cocreate/mq/mocks"
	"github.com/zlnvch/cocreate/persona"
	pubsubmemory "github.com/zlnvch/cocreate/pubsub/memory"
	"github.com/zlnvch/cocreate/service"
	"github.com/zlnvch/cocreate/store/memory"
	"github.com/zlnvch/cocreate/worker"
)

const testWorkspace = "ws1"

type fixedSource struct {
	idx int
}

func (f fixedSource) IntN(n int) int {
	return f.idx % n
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc    *service.Service
	store  *memory.MemoryStore
	mq     *mqmocks.MockMQ
	broker *pubsubmemory.MemoryBroker
	clock  *testClock
}

// Helper to setup the service with an in-memory store and broker, a mocked
// queue, a fixed clock and a deterministic responder
func setupService(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  memory.NewMemoryStore(),
		mq:     new(mqmocks.MockMQ),
		broker: pubsubmemory.NewMemoryBroker(),
		clock:  &testClock{now: time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)},
	}

	svc, err := service.NewService(
		env.store,
		env.mq,
		env.broker,
		persona.NewResponder(fixedSource{idx: 0}),
		[]byte("secret"),
		time.Second,
	)
	require.NoError(t, err)
	svc.Now = env.clock.Now
	env.svc = svc

	return env
}

// expectSend records every reply job sent to the queue
func (env *testEnv) expectSend() *[]worker.ReplyJob {
	jobs := &[]worker.ReplyJob{}
	env.mq.On("Send", mock.Anything, mock.AnythingOfType("string"), time.Second).
		Run(func(args mock.Arguments) {
			var job worker.ReplyJob
			if err := json.Unmarshal([]byte(args.String(1)), &job); err == nil {
				*jobs = append(*jobs, job)
			}
		}).
		Return(nil)
	return jobs
}

func (env *testEnv) storedSessions(t *testing.T) string {
	t.Helper()
	raw, err := env.store.Get(context.Background(), service.WorkspaceKey(testWorkspace, service.KeySessions))
	require.NoError(t, err)
	return raw
}
