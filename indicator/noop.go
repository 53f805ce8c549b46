package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

func (n *Noop) Idle()                   {}
func (n *Noop) Spinning()               {}
func (n *Noop) Awarded(info *PrizeInfo) {}
func (n *Noop) Failed()                 {}
func (n *Noop) Connected()              {}
func (n *Noop) ConnectionLost()         {}
func (n *Noop) Shutdown()               {}
func (n *Noop) Release() error          { return nil }
