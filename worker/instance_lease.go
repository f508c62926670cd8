package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zlnvch/cocreate/store"
)

// InstanceLeaseKey names the lease that makes one server process the owner
// of every workspace. Workspaces, boards and reply epochs live in process
// memory, so a second process sharing the store would fork that state.
const InstanceLeaseKey = "cocreate:instance"

const (
	DefaultLeaseTTL = 30 * time.Second

	releaseTimeout = 5 * time.Second
)

type InstanceLease struct {
	leaser store.Leaser
	owner  string
	ttl    time.Duration
	now    func() time.Time
}

func NewInstanceLease(leaser store.Leaser, owner string, ttl time.Duration) *InstanceLease {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &InstanceLease{
		leaser: leaser,
		owner:  owner,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *InstanceLease) renewInterval() time.Duration {
	return l.ttl / 3
}

// Acquire retries until the lease is granted or ctx ends, which lets the
// lease of a crashed predecessor lapse.
func (l *InstanceLease) Acquire(ctx context.Context) error {
	ticker := time.NewTicker(l.renewInterval())
	defer ticker.Stop()

	for {
		granted, err := l.leaser.AcquireLease(ctx, InstanceLeaseKey, l.owner, l.ttl)
		if err != nil {
			log.Printf("Failed to acquire instance lease: %v", err)
		} else if granted {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("instance lease held by another server: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Hold renews the lease until ctx ends and then releases it. If the lease
// is refused, or cannot be renewed for a whole ttl, Hold calls lost and
// returns without releasing.
func (l *InstanceLease) Hold(ctx context.Context, lost func()) {
	ticker := time.NewTicker(l.renewInterval())
	defer ticker.Stop()

	renewed := l.now()
	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			if err := l.leaser.ReleaseLease(releaseCtx, InstanceLeaseKey, l.owner); err != nil {
				log.Printf("Failed to release instance lease: %v", err)
			}
			cancel()
			return

		case <-ticker.C:
			granted, err := l.leaser.AcquireLease(ctx, InstanceLeaseKey, l.owner, l.ttl)
			switch {
			case err == nil && granted:
				renewed = l.now()
				continue
			case err == nil:
				log.Printf("Instance lease taken over by another server")
			case l.now().Sub(renewed) < l.ttl:
				log.Printf("Failed to renew instance lease: %v", err)
				continue
			default:
				log.Printf("Instance lease expired after renew failures: %v", err)
			}
			lost()
			return
		}
	}
}
