package llm

import (
	"context"
	"time"
)

// timeoutClient bounds every call to the wrapped client with a deadline.
type timeoutClient struct {
	client  Client
	timeout time.Duration
}

// WithTimeout wraps client so each Complete/CompleteStream call runs under
// a context deadline. A nil client or non-positive timeout is passed through
// unchanged.
func WithTimeout(client Client, timeout time.Duration) Client {
	if client == nil || timeout <= 0 {
		return client
	}
	return &timeoutClient{client: client, timeout: timeout}
}

func (c *timeoutClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Complete(ctx, req)
}

func (c *timeoutClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.CompleteStream(ctx, req, callback)
}

func (c *timeoutClient) Name() string {
	return c.client.Name()
}
