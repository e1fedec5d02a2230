package model

// HoursPerYear is the length of an average (Julian) year in hours.
const HoursPerYear = 365.25 * 24

// Slot addresses one representative hour.
type Slot struct {
	Week string
	Hour string
}

// TimeStructure is the representative time grid plus its named profile columns.
//
// Hours are a sample (e.g. 28 six-hourly snapshots standing in for a week), so a sum over
// slots is not an energy total until it is reweighted with Weight.
type TimeStructure struct {
	Weeks []string
	Hours []string

	// Profiles maps a column name to its value per slot. Missing slots read as 0.
	Profiles map[string]map[Slot]float64
}

// Slots returns every (week, hour) pair in week-major order.
func (ts TimeStructure) Slots() []Slot {
	out := make([]Slot, 0, len(ts.Weeks)*len(ts.Hours))
	for _, w := range ts.Weeks {
		for _, h := range ts.Hours {
			out = append(out, Slot{Week: w, Hour: h})
		}
	}
	return out
}

// Profile looks up a named column at a slot. The second result is false when the
// column does not exist at all.
func (ts TimeStructure) Profile(column string, s Slot) (float64, bool) {
	col, ok := ts.Profiles[column]
	if !ok {
		return 0, false
	}
	return col[s], true
}

// HasProfile reports whether a named column exists.
func (ts TimeStructure) HasProfile(column string) bool {
	_, ok := ts.Profiles[column]
	return ok
}

// Weight is the number of real hours each representative slot stands for, given the real
// length of the whole modelled period.
func (ts TimeStructure) Weight(periodHours float64) float64 {
	n := len(ts.Weeks) * len(ts.Hours)
	if n == 0 {
		return 0
	}
	return periodHours / float64(n)
}
