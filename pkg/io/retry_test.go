package io

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{name: "first try", failures: 0, retryable: true, wantCalls: 1},
		{name: "recovers", failures: 2, retryable: true, wantCalls: 3},
		{name: "gives up", failures: 5, retryable: true, wantCalls: 3, wantErr: true},
		{name: "permanent", failures: 5, retryable: false, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry(context.Background(), 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					err := fmt.Errorf("attempt %d", calls)
					if tt.retryable {
						return &retryableError{err}
					}
					return err
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		return &retryableError{fmt.Errorf("locked")}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
