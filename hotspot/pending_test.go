package hotspot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingResolvesOnce(t *testing.T) {
	p := NewPending()
	assert.False(t, p.Resolved())

	p.Resolve(Success())

	assert.True(t, p.Resolved())
	assert.True(t, p.Outcome().Succeeded())

	assert.Panics(t, func() {
		p.Resolve(Fail(UnknownError, "late", ""))
	})

	// the first outcome is kept
	assert.True(t, p.Outcome().Succeeded())
}

func TestPendingTryResolve(t *testing.T) {
	p := NewPending()

	assert.True(t, p.TryResolve(Fail(ConnectionTimeout, "Connection timeout", "")))
	assert.False(t, p.TryResolve(Success()))
	assert.Equal(t, "CONNECTION_TIMEOUT", p.Outcome().Code())
}

func TestPendingReleasesWaiters(t *testing.T) {
	p := NewPending()

	var wg sync.WaitGroup
	codes := make(chan string, 3)

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- p.Outcome().Code()
		}()
	}

	p.Resolve(NotAssociated())
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, "NOT_CONNECTED", code)
	}

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}
