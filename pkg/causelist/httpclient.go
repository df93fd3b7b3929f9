package causelist

import (
	"net/http"
	"sync"
	"time"
)

// HTTPClient is an interface matching the Do method of *http.Client.
// This allows injection of mock clients for testing and custom transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultRequestInterval is the default minimum interval between requests to
// the eCourts servers, to avoid overwhelming the service.
const DefaultRequestInterval = 1 * time.Second

// PoliteHTTPClient wraps an HTTPClient with a minimum-interval limiter so
// the candidate-URL probing loop never hammers the upstream site.
type PoliteHTTPClient struct {
	underlying      HTTPClient
	requestInterval time.Duration
	mu              sync.Mutex
	lastRequest     time.Time
}

// NewPoliteHTTPClient creates a client that enforces the given minimum
// interval between consecutive requests.
func NewPoliteHTTPClient(underlying HTTPClient, requestInterval time.Duration) *PoliteHTTPClient {
	return &PoliteHTTPClient{
		underlying:      underlying,
		requestInterval: requestInterval,
	}
}

// Do executes an HTTP request, sleeping first if the previous request was
// sent less than the configured interval ago.
func (politeClient *PoliteHTTPClient) Do(req *http.Request) (*http.Response, error) {
	politeClient.mu.Lock()
	if politeClient.requestInterval > 0 && !politeClient.lastRequest.IsZero() {
		elapsed := time.Since(politeClient.lastRequest)
		if elapsed < politeClient.requestInterval {
			waitDuration := politeClient.requestInterval - elapsed
			politeClient.mu.Unlock()
			time.Sleep(waitDuration)
			politeClient.mu.Lock()
		}
	}
	politeClient.lastRequest = time.Now()
	politeClient.mu.Unlock()

	return politeClient.underlying.Do(req)
}
