package dispenser

// Noop implements Dispenser but does nothing.
// Used when no dispenser is configured.
type Noop struct{}

// Dispense implements Dispenser.Dispense.
func (n *Noop) Dispense(count int) error {
	if count < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Release implements Dispenser.Release.
func (n *Noop) Release() error {
	return nil
}
