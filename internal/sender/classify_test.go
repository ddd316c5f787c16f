package sender

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Outcome
	}{
		{"nil is success", nil, Success},
		{"permanent marker", Permanent(errors.New("unknown recipient")), PermanentFailure},
		{"transient marker", Transient(errors.New("connection refused")), TransientFailure},
		{"wrapped permanent marker", errors.Join(errors.New("outer"), Permanent(errors.New("inner"))), PermanentFailure},
		{"net error", &net.OpError{Op: "dial", Err: timeoutErr{}}, TransientFailure},
		{"url error", &url.Error{Op: "Post", URL: "https://api", Err: timeoutErr{}}, TransientFailure},
		{"context deadline", context.DeadlineExceeded, TransientFailure},
		{"unknown defaults to permanent", errors.New("something odd"), PermanentFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "permanent_failure", PermanentFailure.String())
	assert.Equal(t, "transient_failure", TransientFailure.String())
}
