package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed, "11th request should be denied")
	assert.False(t, info.Allowed)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.True(t, info.ResetTime.After(time.Now()))
}

func TestLimiter_SeparateClients(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("10.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("10.0.0.1", "/test", "GET")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("10.0.0.2", "/test", "GET")
	assert.True(t, allowed, "another client has its own bucket")
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET")
		assert.True(t, allowed, "whitelisted client should always be allowed")
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.2": true},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("192.168.1.2", "/test", "GET")
	assert.False(t, allowed, "blacklisted client should be denied")
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false, DefaultLimit: 1})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Endpoints: Routes{
			"POST /generic/filter_by_exclusions": {Limit: 2, Window: time.Minute},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 2; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/generic/filter_by_exclusions", "POST")
		assert.True(t, allowed)
		assert.Equal(t, 2, info.Limit)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/generic/filter_by_exclusions", "POST")
	assert.False(t, allowed)

	allowed, info := limiter.Allow("127.0.0.1", "/other", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, Endpoints: APIRoutes()})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("127.0.0.1", "/version", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := limiter.Allow("127.0.0.1", "/test", "GET")
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestLimiter_RemoveIdle(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i), "/test", "GET")
	}

	limiter.removeIdle(time.Now().Add(-time.Minute))
	assert.Len(t, limiter.clients, 3, "recently used limiters are kept")

	limiter.removeIdle(time.Now().Add(time.Minute))
	assert.Empty(t, limiter.clients)
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Minute})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestRoutes_Lookup(t *testing.T) {
	routes := APIRoutes()

	ep, ok := routes.Lookup("POST", "/cipp/parse_messages_from_email_alert_body")
	require.True(t, ok)
	assert.Equal(t, Endpoint{Limit: 600, Window: time.Minute, Burst: 60}, ep)

	ep, ok = routes.Lookup("POST", "/generic/filter_by_exclusions")
	require.True(t, ok)
	assert.Equal(t, 600, ep.Limit)

	_, ok = routes.Lookup("GET", "/cipp/parse_messages_from_email_alert_body")
	assert.False(t, ok, "method is part of the route")

	_, ok = routes.Lookup("POST", "/generic/filter_by_exclusions/extra")
	assert.False(t, ok, "paths match exactly")

	ep, ok = routes.Lookup("GET", "/health")
	require.True(t, ok)
	assert.Zero(t, ep.Limit)

	var none Routes
	_, ok = none.Lookup("GET", "/health")
	assert.False(t, ok)
}

func TestLimiter_BurstOverridesLimit(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Endpoints:     Routes{"POST /x": {Limit: 600, Window: time.Minute, Burst: 3}},
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/x", "POST")
		require.True(t, allowed)
	}
	allowed, info := limiter.Allow("127.0.0.1", "/x", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 600, info.Limit)
}

func TestAddressSet(t *testing.T) {
	set := AddressSet([]string{"10.0.0.1", "10.0.0.2"})
	assert.True(t, set["10.0.0.2"])
	assert.False(t, set["10.0.0.3"])
	assert.Empty(t, AddressSet(nil))
}
