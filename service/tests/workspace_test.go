package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	mqmocks "github.com/zlnvch/cocreate/mq/mocks"
	"github.com/zlnvch/cocreate/service"
	"github.com/zlnvch/cocreate/store"
	storemocks "github.com/zlnvch/cocreate/store/mocks"
)

func TestWorkspace_SlowLoadDoesNotBlockOtherWorkspaces(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	svc, err := service.NewService(mockStore, new(mqmocks.MockMQ), nil, nil, []byte("secret"), time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	mockStore.On("Get", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "workspace:slow:")
	})).Run(func(args mock.Arguments) {
		once.Do(func() { close(entered) })
		<-release
	}).Return("", store.ErrItemNotFound)
	mockStore.On("Get", mock.Anything, mock.Anything).Return("", store.ErrItemNotFound)

	slowLoaded := make(chan struct{})
	go func() {
		defer close(slowLoaded)
		_, err := svc.Workspace(ctx, "slow")
		assert.NoError(t, err)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("slow workspace never reached the store")
	}

	fastLoaded := make(chan struct{})
	go func() {
		defer close(fastLoaded)
		_, err := svc.Workspace(ctx, "fast")
		assert.NoError(t, err)
	}()

	select {
	case <-fastLoaded:
	case <-time.After(2 * time.Second):
		t.Fatal("loading one workspace waited for another")
	}

	close(release)
	<-slowLoaded
}

func TestWorkspace_ConcurrentFirstUseSharesOneValue(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	const callers = 8
	got := make([]*service.Workspace, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := env.svc.Workspace(ctx, testWorkspace)
			assert.NoError(t, err)
			got[i] = w
		}()
	}
	wg.Wait()

	for _, w := range got {
		assert.Same(t, got[0], w)
	}
}
