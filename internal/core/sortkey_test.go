package core

import (
	"testing"

	"seriescore/pkg/domain"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"000000", 0, true},
		{"090000", 9 * 3600, true},
		{"235959", 23*3600 + 59*60 + 59, true},
		{"120000.500000", 12*3600 + 0.5, true},
		{"120000.5", 12*3600 + 0.5, true},
		{" 090000 ", 9 * 3600, true},
		{"0900", 0, false},
		{"", 0, false},
		{"badly", 0, false},
		{"250000", 0, false},
		{"096100", 0, false},
		{"090000.xx", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseTimeOfDay(tc.in)
		if ok != tc.ok {
			t.Errorf("parseTimeOfDay(%q): ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("parseTimeOfDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseDateTimeDigits(t *testing.T) {
	v, ok := parseDateTimeDigits("20260830.090000")
	if !ok || v != 20260830090000 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
	if _, ok := parseDateTimeDigits("no digits here"); ok {
		t.Fatal("expected parse failure for digit-free string")
	}

	early, _ := parseDateTimeDigits("20260830090000")
	late, _ := parseDateTimeDigits("20260830110000")
	if early >= late {
		t.Fatal("digit parse must preserve chronological order")
	}
}

func TestTimeValuePrefersDateTime(t *testing.T) {
	e := domain.Entry{
		AcquisitionTime:     domain.StringPtr("090000"),
		AcquisitionDateTime: domain.StringPtr("20260830090000"),
	}
	v := timeValue(e)
	if !v.present || v.value != 20260830090000 {
		t.Fatalf("expected datetime parse to win, got %+v", v)
	}

	// Malformed datetime degrades to the time string.
	e.AcquisitionDateTime = domain.StringPtr("----")
	v = timeValue(e)
	if !v.present || v.value != 9*3600 {
		t.Fatalf("expected fallback to acquisition time, got %+v", v)
	}

	// Both malformed degrades to missing.
	e.AcquisitionTime = domain.StringPtr("bad")
	if timeValue(e).present {
		t.Fatal("expected missing time value")
	}
}

func TestCompositeKeyMissingSortsLast(t *testing.T) {
	withNumber := keyFor(domain.Entry{InstanceID: "uid-1", InstanceNumber: domain.IntPtr(99)})
	withoutNumber := keyFor(domain.Entry{InstanceID: "uid-0"})
	if !withNumber.less(withoutNumber) {
		t.Fatal("entry with instance number must sort before entry without")
	}
	if withoutNumber.less(withNumber) {
		t.Fatal("ordering must be antisymmetric")
	}
}

func TestCompositeKeyPrecedence(t *testing.T) {
	frame1 := keyFor(domain.Entry{InstanceID: "z", FrameNumber: domain.IntPtr(1), InstanceNumber: domain.IntPtr(9)})
	frame2 := keyFor(domain.Entry{InstanceID: "a", FrameNumber: domain.IntPtr(2), InstanceNumber: domain.IntPtr(1)})
	if !frame1.less(frame2) {
		t.Fatal("frame number must dominate instance number")
	}

	in1 := keyFor(domain.Entry{InstanceID: "z", InstanceNumber: domain.IntPtr(1), AcquisitionTime: domain.StringPtr("110000")})
	in2 := keyFor(domain.Entry{InstanceID: "a", InstanceNumber: domain.IntPtr(2), AcquisitionTime: domain.StringPtr("090000")})
	if !in1.less(in2) {
		t.Fatal("instance number must dominate acquisition time")
	}

	t1 := keyFor(domain.Entry{InstanceID: "z", InstanceNumber: domain.IntPtr(5), AcquisitionTime: domain.StringPtr("090000")})
	t2 := keyFor(domain.Entry{InstanceID: "a", InstanceNumber: domain.IntPtr(5), AcquisitionTime: domain.StringPtr("110000")})
	if !t1.less(t2) {
		t.Fatal("acquisition time must break instance-number ties")
	}

	u1 := keyFor(domain.Entry{InstanceID: "uid-a", InstanceNumber: domain.IntPtr(5)})
	u2 := keyFor(domain.Entry{InstanceID: "uid-b", InstanceNumber: domain.IntPtr(5)})
	if !u1.less(u2) || u2.less(u1) {
		t.Fatal("instance id must be the final tie-breaker")
	}
}
