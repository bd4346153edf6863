package ratelimit

import (
	"net/http"
	"time"
)

// Endpoint is the limit for one method and path. A zero Limit means the
// endpoint is never limited.
type Endpoint struct {
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit when 0
}

// Routes maps "METHOD /path" to its limit. Paths match exactly.
type Routes map[string]Endpoint

func routeKey(method, path string) string {
	return method + " " + path
}

// Lookup returns the limit configured for method and path.
func (r Routes) Lookup(method, path string) (Endpoint, bool) {
	ep, ok := r[routeKey(method, path)]
	return ep, ok
}

// APIRoutes returns the limits for the API's own endpoints. The processing
// endpoints share one budget size; probes are unlimited.
func APIRoutes() Routes {
	processing := Endpoint{Limit: 600, Window: time.Minute, Burst: 60}
	return Routes{
		routeKey(http.MethodPost, "/cipp/parse_messages_from_email_alert_body"): processing,
		routeKey(http.MethodPost, "/generic/filter_by_exclusions"):              processing,
		routeKey(http.MethodGet, "/health"):                                     {},
		routeKey(http.MethodGet, "/version"):                                    {},
	}
}

// AddressSet builds a client lookup set from a list of addresses.
func AddressSet(addrs []string) map[string]bool {
	set := make(map[string]bool, len(addrs))
	for _, addr := range addrs {
		set[addr] = true
	}
	return set
}
