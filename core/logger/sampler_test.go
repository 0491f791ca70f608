package logger

import "testing"

func TestRatioSamplerCycle(t *testing.T) {
	s := newRatioSampler(2, 5)
	allowed := 0
	for range 20 {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 8 {
		t.Fatalf("allowed %d of 20, want 8", allowed)
	}

	s.Set(0, 0)
	for range 3 {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10":   {1, 10},
		" 3 / 4": {3, 4},
		"25":     {1, 25},
		"0":      {0, 0},
		"x/2":    {0, 0},
		"":       {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		if num != want[0] || den != want[1] {
			t.Fatalf("%q = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
}
