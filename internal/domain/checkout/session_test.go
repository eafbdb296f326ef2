package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StartsBrowsing(t *testing.T) {
	assert.Equal(t, StatusBrowsing, NewSession().Status())
}

func TestSession_BrowseAndReviewAlwaysAllowed(t *testing.T) {
	s := NewSession()

	s.ReviewCart()
	assert.Equal(t, StatusReviewingCart, s.Status())

	require.NoError(t, s.BeginCheckout())
	s.Browse()
	assert.Equal(t, StatusBrowsing, s.Status())

	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.PaymentSucceeded())
	s.ReviewCart()
	assert.Equal(t, StatusReviewingCart, s.Status(), "reviewing after placement starts a new cycle")
}

func TestSessionBeginCheckout_FromEveryState(t *testing.T) {
	for _, from := range []func(*Session){
		func(s *Session) { s.Browse() },
		func(s *Session) { s.ReviewCart() },
		func(s *Session) { _ = s.BeginCheckout() },
		func(s *Session) { _ = s.BeginCheckout(); _ = s.PaymentSucceeded() },
	} {
		s := NewSession()
		from(s)
		require.NoError(t, s.BeginCheckout())
		assert.Equal(t, StatusSelectingPayment, s.Status())
	}
}

func TestSessionPaymentFailed_StaysInSelection(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.BeginCheckout())

	require.NoError(t, s.PaymentFailed())
	assert.Equal(t, StatusSelectingPayment, s.Status())

	// Still able to succeed after a failed attempt.
	require.NoError(t, s.PaymentSucceeded())
	assert.Equal(t, StatusPlaced, s.Status())
}

func TestSessionPaymentTransitions_InvalidOutsideSelection(t *testing.T) {
	for name, setup := range map[string]func(*Session){
		"browsing":  func(s *Session) {},
		"reviewing": func(s *Session) { s.ReviewCart() },
		"placed":    func(s *Session) { _ = s.BeginCheckout(); _ = s.PaymentSucceeded() },
	} {
		s := NewSession()
		setup(s)
		assert.ErrorIs(t, s.PaymentSucceeded(), ErrInvalidStateTransition, name)
		assert.ErrorIs(t, s.PaymentFailed(), ErrInvalidStateTransition, name)
	}
}
