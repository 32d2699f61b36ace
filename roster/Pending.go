package roster

// Pending is the set of names not yet marked present, kept in roster order.
// It is used from the single recognition loop only.
type Pending struct {
	order   []string
	pending map[string]bool
}

func NewPending(names []string) *Pending {
	p := &Pending{pending: make(map[string]bool, len(names))}
	for _, name := range names {
		if p.pending[name] {
			continue
		}
		p.pending[name] = true
		p.order = append(p.order, name)
	}
	return p
}

// Mark removes name from the set. It returns true only the first time a
// pending name is marked.
func (p *Pending) Mark(name string) bool {
	if !p.pending[name] {
		return false
	}
	delete(p.pending, name)
	return true
}

func (p *Pending) IsPending(name string) bool {
	return p.pending[name]
}

func (p *Pending) Len() int {
	return len(p.pending)
}

// Remaining lists the names still pending, in roster order.
func (p *Pending) Remaining() []string {
	remaining := make([]string, 0, len(p.pending))
	for _, name := range p.order {
		if p.pending[name] {
			remaining = append(remaining, name)
		}
	}
	return remaining
}

// Marked lists the names already marked, in roster order.
func (p *Pending) Marked() []string {
	marked := make([]string, 0, len(p.order)-len(p.pending))
	for _, name := range p.order {
		if !p.pending[name] {
			marked = append(marked, name)
		}
	}
	return marked
}
