package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadlineClient records whether the incoming context carried a deadline.
type deadlineClient struct {
	hadDeadline bool
}

func (c *deadlineClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	_, c.hadDeadline = ctx.Deadline()
	return &CompletionResponse{Content: "ok"}, nil
}

func (c *deadlineClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	_, c.hadDeadline = ctx.Deadline()
	return &CompletionResponse{Content: "ok"}, nil
}

func (c *deadlineClient) Name() string { return "deadline" }

func TestWithTimeoutAppliesDeadline(t *testing.T) {
	inner := &deadlineClient{}
	client := WithTimeout(inner, time.Minute)

	_, err := client.Complete(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	assert.True(t, inner.hadDeadline)

	inner.hadDeadline = false
	_, err = client.CompleteStream(context.Background(), &CompletionRequest{}, func(string, int) error { return nil })
	require.NoError(t, err)
	assert.True(t, inner.hadDeadline)

	assert.Equal(t, "deadline", client.Name())
}

func TestWithTimeoutPassthrough(t *testing.T) {
	assert.Nil(t, WithTimeout(nil, time.Minute))

	inner := &deadlineClient{}
	assert.Equal(t, Client(inner), WithTimeout(inner, 0))
}
