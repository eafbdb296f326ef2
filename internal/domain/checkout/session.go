package checkout

import "errors"

var (
	ErrEmptyCart              = errors.New("checkout: cart is empty")
	ErrInvalidState           = errors.New("checkout: payment selection is not in progress")
	ErrInvalidStateTransition = errors.New("checkout: invalid state transition")
)

type Status string

const (
	StatusBrowsing         Status = "browsing"
	StatusReviewingCart    Status = "reviewing_cart"
	StatusSelectingPayment Status = "selecting_payment"
	StatusPlaced           Status = "placed"
)

// Session tracks one user's position in the checkout lifecycle. Placed is
// terminal per attempt; browsing again starts a fresh cycle.
type Session struct {
	state sessionState
}

func NewSession() *Session {
	return &Session{state: browsingState{}}
}

func (s *Session) Status() Status { return s.state.Status() }

// Browse moves to Browsing. Always allowed; from Placed it starts a new cycle.
func (s *Session) Browse() {
	s.state = browsingState{}
}

// ReviewCart moves to ReviewingCart. Always allowed; cart mutations themselves
// never change state.
func (s *Session) ReviewCart() {
	s.state = reviewingCartState{}
}

// BeginCheckout enters payment selection. Cart emptiness is validated by the
// caller, which owns the cart.
func (s *Session) BeginCheckout() error {
	next, err := s.state.OnBeginCheckout()
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Session) PaymentSucceeded() error {
	next, err := s.state.OnPaymentSucceeded()
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Session) PaymentFailed() error {
	next, err := s.state.OnPaymentFailed()
	if err != nil {
		return err
	}
	s.state = next
	return nil
}
