package schedule

// Epoch is the date of the first event, numbered 1.
var Epoch = Date{Year: 2005, Month: 12, Day: 15}

// hiatusEnd2024 closes the COVID-19 hiatus; the March 2020 event never happened.
var hiatusEnd2024 = Date{Year: 2024, Month: 8, Day: 31}

// DefaultHiatuses are the historical suspension windows.
var DefaultHiatuses = []Hiatus{
	{Start: Date{Year: 2020, Month: 2, Day: 14}, End: &hiatusEnd2024},
}

// Calendar numbers events from an epoch, skipping hiatuses. A Calendar is
// immutable once built and safe for concurrent use.
type Calendar struct {
	epoch    Date
	hiatuses []Hiatus
}

// NewCalendar validates epoch and hiatuses and returns a Calendar over them.
// The hiatus list must be in chronological order; it is copied.
func NewCalendar(epoch Date, hiatuses []Hiatus) (*Calendar, error) {
	if epoch.IsZero() {
		return nil, argumentError(ErrInvalidEpoch, "epoch is not set")
	}
	if !IsEventDay(epoch) {
		return nil, argumentError(ErrInvalidEpoch, "epoch %s is not a middle Thursday (want %s)",
			epoch, EventDateIn(epoch.Year, epoch.Month))
	}
	if err := ValidateHiatuses(hiatuses); err != nil {
		return nil, err
	}
	for _, h := range hiatuses {
		if h.Contains(epoch) {
			return nil, argumentError(ErrInvalidEpoch, "epoch %s falls in hiatus %s", epoch, h)
		}
	}

	c := &Calendar{
		epoch:    epoch,
		hiatuses: make([]Hiatus, len(hiatuses)),
	}
	for i, h := range hiatuses {
		c.hiatuses[i] = Hiatus{Start: h.Start}
		if h.End != nil {
			end := *h.End
			c.hiatuses[i].End = &end
		}
	}
	return c, nil
}

// Default returns the compiled-in calendar.
func Default() *Calendar {
	c, err := NewCalendar(Epoch, DefaultHiatuses)
	if err != nil {
		panic("schedule: invalid built-in calendar: " + err.Error())
	}
	return c
}

// Epoch returns the date of event number 1.
func (c *Calendar) Epoch() Date {
	return c.epoch
}

// Hiatuses returns a copy of the configured hiatus list.
func (c *Calendar) Hiatuses() []Hiatus {
	out := make([]Hiatus, len(c.hiatuses))
	copy(out, c.hiatuses)
	return out
}

// InHiatus returns the first hiatus, in list order, that contains d.
func (c *Calendar) InHiatus(d Date) (Hiatus, bool) {
	for _, h := range c.hiatuses {
		if h.Contains(d) {
			return h, true
		}
	}
	return Hiatus{}, false
}
