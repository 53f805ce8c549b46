package indicator

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// NewMulti fans every state out to indicators.
func NewMulti(indicators ...Indicator) *Multi {
	return &Multi{indicators: indicators}
}

// Idle implements Indicator.Idle.
func (m *Multi) Idle() {
	for _, ind := range m.indicators {
		ind.Idle()
	}
}

// Spinning implements Indicator.Spinning.
func (m *Multi) Spinning() {
	for _, ind := range m.indicators {
		ind.Spinning()
	}
}

// Awarded implements Indicator.Awarded.
func (m *Multi) Awarded(info *PrizeInfo) {
	for _, ind := range m.indicators {
		ind.Awarded(info)
	}
}

// Failed implements Indicator.Failed.
func (m *Multi) Failed() {
	for _, ind := range m.indicators {
		ind.Failed()
	}
}

// Connected implements Indicator.Connected.
func (m *Multi) Connected() {
	for _, ind := range m.indicators {
		ind.Connected()
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() {
	for _, ind := range m.indicators {
		ind.Shutdown()
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var lastErr error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
