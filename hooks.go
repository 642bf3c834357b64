package decterm

// Hooks intercept the parser's dispatch actions before the built-in
// behavior runs. Each hook receives the original arguments and a next
// function invoking the default implementation; skip next to suppress the
// action entirely. Useful for tracing, filtering, and tests.
type Hooks struct {
	// Print intercepts graphic characters.
	Print func(r rune, next func(rune))
	// Execute intercepts C0/C1 controls.
	Execute func(b byte, next func(byte))
	// Esc intercepts completed escape sequences.
	Esc func(inters []byte, final byte, next func([]byte, byte))
	// Csi intercepts completed control sequences.
	Csi func(seq *CSISequence, next func(*CSISequence))
	// Osc intercepts completed operating system commands.
	Osc func(payload []byte, bel bool, next func([]byte, bool))
	// Dcs intercepts completed device control strings.
	Dcs func(seq *CSISequence, data []byte, next func(*CSISequence, []byte))
}

// Merge overlays non-nil hooks from other onto h.
func (h *Hooks) Merge(other Hooks) {
	if other.Print != nil {
		h.Print = other.Print
	}
	if other.Execute != nil {
		h.Execute = other.Execute
	}
	if other.Esc != nil {
		h.Esc = other.Esc
	}
	if other.Csi != nil {
		h.Csi = other.Csi
	}
	if other.Osc != nil {
		h.Osc = other.Osc
	}
	if other.Dcs != nil {
		h.Dcs = other.Dcs
	}
}
