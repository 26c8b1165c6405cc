package registrar

import (
	"net/http"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/util/retry"
)

type options struct {
	httpClient *http.Client
	log        logr.Logger
	read       retry.Policy
	mutation   retry.Policy
}

// Option configures a provider.
type Option func(*options)

// WithHTTPClient sets the HTTP client used by REST providers.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLogger sets the provider logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithRetryPolicies overrides the read and mutation retry policies.
func WithRetryPolicies(read, mutation retry.Policy) Option {
	return func(o *options) {
		o.read = read
		o.mutation = mutation
	}
}

func applyOptions(opts []Option) options {
	o := options{
		log:      logr.Discard(),
		read:     retry.ReadPolicy(),
		mutation: retry.MutationPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.httpClient = defaultHTTPClient(o.httpClient)
	return o
}
