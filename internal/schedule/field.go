package schedule

import (
	"math/bits"
	"strconv"
	"strings"
)

// Set is a bitmask of allowed values for one schedule field.
// Bit n set means value n is allowed. Values are limited to [0, 63].
type Set uint64

// Bounds of each field, inclusive.
const (
	MinuteMin, MinuteMax   = 0, 59
	HourMin, HourMax       = 0, 23
	DayMin, DayMax         = 1, 31
	WeekdayMin, WeekdayMax = 0, 6 // 0 = Monday
	MonthMin, MonthMax     = 1, 12
)

// SetOf builds a Set from the given values. Out-of-range values (<0 or >63) are ignored.
func SetOf(values ...int) Set {
	var s Set
	for _, v := range values {
		if v < 0 || v > 63 {
			continue
		}
		s |= 1 << uint(v)
	}
	return s
}

// Range returns a Set containing every value in [lo, hi].
func Range(lo, hi int) Set {
	var s Set
	for v := lo; v <= hi; v++ {
		s |= 1 << uint(v)
	}
	return s
}

func (s Set) Has(v int) bool {
	if v < 0 || v > 63 {
		return false
	}
	return s&(1<<uint(v)) != 0
}

func (s Set) Empty() bool { return s == 0 }

func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }

// Min returns the smallest value in the set.
func (s Set) Min() (int, bool) {
	if s == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(s)), true
}

// NextAfter returns the smallest value strictly greater than v.
func (s Set) NextAfter(v int) (int, bool) {
	if v < 0 {
		return s.Min()
	}
	if v >= 63 {
		return 0, false
	}
	rest := uint64(s) >> uint(v+1) << uint(v+1)
	if rest == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(rest), true
}

// UpTo returns the subset of values <= max.
func (s Set) UpTo(max int) Set {
	if max < 0 {
		return 0
	}
	if max >= 63 {
		return s
	}
	return s & Set(uint64(1)<<uint(max+1)-1)
}

// Within reports whether every value lies in [lo, hi].
func (s Set) Within(lo, hi int) bool {
	return s&^Range(lo, hi) == 0
}

func (s Set) Values() []int {
	out := make([]int, 0, s.Len())
	for x := uint64(s); x != 0; x &= x - 1 {
		out = append(out, bits.TrailingZeros64(x))
	}
	return out
}

// String renders the set compactly, collapsing runs into ranges ("0-4,6").
func (s Set) String() string {
	vals := s.Values()
	if len(vals) == 0 {
		return "-"
	}
	var b strings.Builder
	for i := 0; i < len(vals); {
		j := i
		for j+1 < len(vals) && vals[j+1] == vals[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(vals[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(vals[j]))
		}
		i = j + 1
	}
	return b.String()
}
