package schedule

// Hiatus is an inclusive window during which no events take place.
// A nil End means the hiatus is ongoing with no known resumption date.
type Hiatus struct {
	Start Date  `yaml:"start" json:"start"`
	End   *Date `yaml:"end,omitempty" json:"end,omitempty"`
}

// OpenEnded reports whether h has no end date.
func (h Hiatus) OpenEnded() bool {
	return h.End == nil
}

// Contains reports whether d lies inside h.
func (h Hiatus) Contains(d Date) bool {
	if d.Before(h.Start) {
		return false
	}
	return h.End == nil || !d.After(*h.End)
}

func (h Hiatus) String() string {
	if h.End == nil {
		return h.Start.String() + "..(ongoing)"
	}
	return h.Start.String() + ".." + h.End.String()
}

// ValidateHiatuses checks that the list is chronologically ordered and
// non-overlapping, that each End is not before its Start, and that an
// open-ended hiatus, if any, is the last entry.
func ValidateHiatuses(hiatuses []Hiatus) error {
	for i, h := range hiatuses {
		if h.End != nil && h.End.Before(h.Start) {
			return argumentError(ErrInvalidHiatus, "hiatus %d (%s) ends before it starts", i, h)
		}
		if i == 0 {
			continue
		}

		prev := hiatuses[i-1]
		if prev.End == nil {
			return argumentError(ErrInvalidHiatus, "hiatus %d (%s) follows an open-ended hiatus", i, h)
		}
		if !h.Start.After(*prev.End) {
			return argumentError(ErrInvalidHiatus, "hiatus %d (%s) overlaps or precedes hiatus %d (%s)", i, h, i-1, prev)
		}
	}
	return nil
}
