package upstream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v81"
)

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyPassesThroughSentinels(t *testing.T) {
	assert.Equal(t, ErrTimeout, Classify(ErrTimeout))
	assert.Equal(t, ErrNotFound, Classify(ErrNotFound))
	assert.Equal(t, ErrFilteringUnsupported, Classify(ErrFilteringUnsupported))
}

func TestClassifyTimeouts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded},
		{name: "wrapped deadline", err: errors.New("Get \"https://api.stripe.com\": context deadline exceeded")},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer")},
		{name: "headers timeout", err: errors.New("net/http: timeout awaiting response headers")},
		{name: "client timeout", err: errors.New("net/http: request canceled (Client.Timeout exceeded while awaiting headers)")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), ErrTimeout)
		})
	}
}

func TestClassifyStripeNotFound(t *testing.T) {
	byStatus := &stripe.Error{HTTPStatusCode: 404, Msg: "No such payout"}
	assert.ErrorIs(t, Classify(byStatus), ErrNotFound)

	byCode := &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such payout: po_x"}
	assert.ErrorIs(t, Classify(byCode), ErrNotFound)
}

func TestClassifyFilteringRejection(t *testing.T) {
	rejections := []string{
		"Balance transaction history can only be filtered on automatic transfers, not manual.",
		"Filtering on manual payouts is not allowed.",
	}
	for _, msg := range rejections {
		err := Classify(&stripe.Error{HTTPStatusCode: 400, Msg: msg})
		assert.ErrorIs(t, err, ErrFilteringUnsupported, msg)
	}
}

func TestClassifyOtherStripeError(t *testing.T) {
	cause := &stripe.Error{HTTPStatusCode: 402, Code: stripe.ErrorCodeCardDeclined, Msg: "declined"}
	err := Classify(cause)

	var upstreamErr *Error
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, string(stripe.ErrorCodeCardDeclined), upstreamErr.Code)
	assert.Equal(t, "declined", upstreamErr.Message)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClassifyUnknownError(t *testing.T) {
	err := Classify(errors.New("something odd"))

	var upstreamErr *Error
	require.ErrorAs(t, err, &upstreamErr)
	assert.Contains(t, upstreamErr.Error(), "something odd")
}
