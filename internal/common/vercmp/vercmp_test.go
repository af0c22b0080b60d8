package vercmp

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"1.0", "1.0", 0},
		{"1.9.0", "1.10.0", -1},
		{"10", "9", 1},
		{"1.2", "1.2.1", -1},
		{"1.2.3-r1", "1.2.3-r2", -1},
		{"1.2.3", "1.2.3-r1", -1},
		{"1.0.0-rc1", "1.0.0", -1},
		{"1.0.0-alpha", "1.0.0-beta", -1},
		{"1.0.0-rc2", "1.0.0-rc10", -1},
		{"3.19", "3.18", 1},
		{"007", "7", 0},
		{"20240101", "20231231", 1},
		{"99999999999999999999", "100000000000000000000", -1},
		{"1_2_r3", "1.2-r3", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.a, tt.b), func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		expected string
	}{
		{"empty list", nil, ""},
		{"single", []string{"1.0"}, "1.0"},
		{"numeric segments", []string{"1.9.0", "1.10.0"}, "1.10.0"},
		{"unsorted", []string{"2.1", "2.10", "2.9", "2.2"}, "2.10"},
		{"release beats rc", []string{"5.0-rc3", "5.0", "4.9"}, "5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Max(tt.versions); got != tt.expected {
				t.Errorf("Max(%v) = %q, want %q", tt.versions, got, tt.expected)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	tests := map[string]string{
		"1.25.3-r1": "1.25.3",
		"1.1":       "1.1",
		"2.3-5-6":   "2.3",
		"":          "",
	}
	for input, expected := range tests {
		if got := Strip(input); got != expected {
			t.Errorf("Strip(%q) = %q, want %q", input, got, expected)
		}
	}
}

// TestVersionOrderingProperties checks ordering invariants over generated
// dotted numeric versions.
func TestVersionOrderingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	segmentsGen := gen.SliceOfN(3, gen.IntRange(0, 500))

	format := func(parts []int) string {
		s := ""
		for i, p := range parts {
			if i > 0 {
				s += "."
			}
			s += fmt.Sprint(p)
		}
		return s
	}

	properties.Property("Compare is antisymmetric", prop.ForAll(
		func(a, b []int) bool {
			va, vb := format(a), format(b)
			return Compare(va, vb) == -Compare(vb, va)
		},
		segmentsGen, segmentsGen,
	))

	properties.Property("Compare matches integer ordering of segments", prop.ForAll(
		func(a, b []int) bool {
			expected := 0
			for i := range a {
				if a[i] != b[i] {
					if a[i] < b[i] {
						expected = -1
					} else {
						expected = 1
					}
					break
				}
			}
			return Compare(format(a), format(b)) == expected
		},
		segmentsGen, segmentsGen,
	))

	properties.Property("Max is not less than any element", prop.ForAll(
		func(a, b, c []int) bool {
			list := []string{format(a), format(b), format(c)}
			best := Max(list)
			for _, v := range list {
				if Compare(best, v) < 0 {
					return false
				}
			}
			return true
		},
		segmentsGen, segmentsGen, segmentsGen,
	))

	properties.TestingRun(t)
}
