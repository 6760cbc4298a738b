package ufo

// Kerning is the two-level kerning table of a font: first member to second
// member to adjustment value. Members are glyph names or group names.
type Kerning map[string]map[string]float64

// Get returns the adjustment for a member pair.
func (k Kerning) Get(first, second string) (float64, bool) {
	row, ok := k[first]
	if !ok {
		return 0, false
	}
	v, ok := row[second]
	return v, ok
}

// Set stores the adjustment for a member pair.
func (k Kerning) Set(first, second string, value float64) {
	row, ok := k[first]
	if !ok {
		row = make(map[string]float64)
		k[first] = row
	}
	row[second] = value
}

// Remove deletes a member pair; empty rows are dropped.
func (k Kerning) Remove(first, second string) {
	row, ok := k[first]
	if !ok {
		return
	}
	delete(row, second)
	if len(row) == 0 {
		delete(k, first)
	}
}

// Pairs returns the number of member pairs.
func (k Kerning) Pairs() int {
	n := 0
	for _, row := range k {
		n += len(row)
	}
	return n
}
