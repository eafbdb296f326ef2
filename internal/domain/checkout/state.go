package checkout

// sessionState implements the state pattern for checkout lifecycle transitions.
type sessionState interface {
	Status() Status
	OnBeginCheckout() (sessionState, error)
	OnPaymentSucceeded() (sessionState, error)
	OnPaymentFailed() (sessionState, error)
}

type browsingState struct{}

func (browsingState) Status() Status { return StatusBrowsing }

func (browsingState) OnBeginCheckout() (sessionState, error) {
	return selectingPaymentState{}, nil
}

func (browsingState) OnPaymentSucceeded() (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (browsingState) OnPaymentFailed() (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

type reviewingCartState struct{}

func (reviewingCartState) Status() Status { return StatusReviewingCart }

func (reviewingCartState) OnBeginCheckout() (sessionState, error) {
	return selectingPaymentState{}, nil
}

func (reviewingCartState) OnPaymentSucceeded() (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (reviewingCartState) OnPaymentFailed() (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

type selectingPaymentState struct{}

func (selectingPaymentState) Status() Status { return StatusSelectingPayment }

func (selectingPaymentState) OnBeginCheckout() (sessionState, error) {
	// Re-issuing checkout while already selecting is a no-op transition.
	return selectingPaymentState{}, nil
}

func (selectingPaymentState) OnPaymentSucceeded() (sessionState, error) {
	return placedState{}, nil
}

func (selectingPaymentState) OnPaymentFailed() (sessionState, error) {
	// Retryable: stay in payment selection with the cart intact.
	return selectingPaymentState{}, nil
}

type placedState struct{}

func (placedState) Status() Status { return StatusPlaced }

func (placedState) OnBeginCheckout() (sessionState, error) {
	// A new checkout after placement starts a fresh cycle.
	return selectingPaymentState{}, nil
}

func (placedState) OnPaymentSucceeded() (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (placedState) OnPaymentFailed() (sessionState, error) {
	return nil, ErrInvalidStateTransition
}
