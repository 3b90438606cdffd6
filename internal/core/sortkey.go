package core

import (
	"math"
	"strconv"
	"strings"

	"seriescore/pkg/domain"
)

// sortValue is an optional numeric sort component. Absent values sort after
// every present value, so instances missing ordering metadata land at the
// tail of their series instead of aborting the run.
type sortValue struct {
	present bool
	value   float64
}

func presentValue(v float64) sortValue { return sortValue{present: true, value: v} }

func missingValue() sortValue { return sortValue{} }

// rank maps the value onto a total order where missing == +inf.
func (v sortValue) rank() float64 {
	if !v.present {
		return math.Inf(1)
	}
	return v.value
}

// compositeKey is the canonical per-entry sort key:
// (frame_number|0, instance_number|+inf, time_value|+inf, sop_uid).
type compositeKey struct {
	frame    float64
	instance sortValue
	timeVal  sortValue
	uid      string
}

func (k compositeKey) less(other compositeKey) bool {
	if k.frame != other.frame {
		return k.frame < other.frame
	}
	if a, b := k.instance.rank(), other.instance.rank(); a != b {
		return a < b
	}
	if a, b := k.timeVal.rank(), other.timeVal.rank(); a != b {
		return a < b
	}
	return k.uid < other.uid
}

// keyFor derives the composite key for an entry. Malformed time or datetime
// strings degrade to missing; they are counted upstream, never raised.
func keyFor(e domain.Entry) compositeKey {
	key := compositeKey{uid: e.InstanceID}
	if e.FrameNumber != nil {
		key.frame = float64(*e.FrameNumber)
	}
	if e.InstanceNumber != nil {
		key.instance = presentValue(float64(*e.InstanceNumber))
	}
	key.timeVal = timeValue(e)
	return key
}

// timeValue prefers acquisition_datetime (digits-only numeric parse) over
// acquisition_time (HHMMSS[.ffffff] as seconds since midnight).
func timeValue(e domain.Entry) sortValue {
	if e.AcquisitionDateTime != nil {
		if v, ok := parseDateTimeDigits(*e.AcquisitionDateTime); ok {
			return presentValue(v)
		}
	}
	if e.AcquisitionTime != nil {
		if v, ok := parseTimeOfDay(*e.AcquisitionTime); ok {
			return presentValue(v)
		}
	}
	return missingValue()
}

// parseDateTimeDigits interprets the digit characters of a datetime string as
// one number, which preserves chronological order for same-format values.
func parseDateTimeDigits(s string) (float64, bool) {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseTimeOfDay converts an HHMMSS[.ffffff] time string to seconds since
// midnight. Returns false for values it cannot interpret.
func parseTimeOfDay(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if len(whole) < 6 {
		return 0, false
	}
	whole = whole[:6]
	hh, err1 := strconv.Atoi(whole[0:2])
	mm, err2 := strconv.Atoi(whole[2:4])
	ss, err3 := strconv.Atoi(whole[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	if hh > 23 || mm > 59 || ss > 60 {
		return 0, false
	}
	total := float64(hh*3600 + mm*60 + ss)
	if hasFrac && frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, false
		}
		total += f
	}
	return total, true
}
