package deck

// Score measures how far a permutation is from sorted order.
type Score struct {
	CorrectPositions  int `json:"correctPositions"`
	TotalDisplacement int `json:"totalDisplacement"`
}

// Sorted reports whether the scored permutation was the identity.
func (s Score) Sorted() bool {
	return s.TotalDisplacement == 0
}

// Evaluate scores p against the identity ordering.
func Evaluate(p Permutation) Score {
	var s Score
	for i, v := range p {
		if v == i {
			s.CorrectPositions++
			continue
		}
		d := v - i
		if d < 0 {
			d = -d
		}
		s.TotalDisplacement += d
	}
	return s
}
