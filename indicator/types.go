package indicator

// PrizeInfo describes an award for display purposes.
type PrizeInfo struct {
	Label  string
	Amount float64
}

// Won reports whether the award is worth anything.
func (p *PrizeInfo) Won() bool {
	return p != nil && p.Amount > 0
}
