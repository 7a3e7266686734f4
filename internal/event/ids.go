package event

// IDs hands out entity ids. Zero is never issued.
type IDs struct {
	last ID
}

// Next returns a fresh id.
func (a *IDs) Next() ID {
	a.last++
	return a.last
}
