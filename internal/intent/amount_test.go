package intent

import "testing"

func TestToRawAmount(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
		want     uint64
	}{
		{"0.25", 9, 250000000},
		{"1", 9, 1000000000},
		{"1.5", 6, 1500000},
		{"0.000000001", 9, 1},
		{"123.456", 6, 123456000},
		{".5", 9, 500000000},
	}
	for _, tc := range cases {
		got, err := toRawAmount(tc.amount, tc.decimals)
		if err != nil {
			t.Errorf("toRawAmount(%q, %d) failed: %v", tc.amount, tc.decimals, err)
			continue
		}
		if got != tc.want {
			t.Errorf("toRawAmount(%q, %d) = %d, want %d", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestToRawAmount_Rejects(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals int
	}{
		{"zero", "0", 9},
		{"zero point zero", "0.0", 9},
		{"empty", "", 9},
		{"negative", "-1", 9},
		{"letters", "one", 9},
		{"too many decimals", "0.0000000001", 9},
		{"two dots", "1.2.3", 9},
		{"exponent", "1e9", 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := toRawAmount(tc.amount, tc.decimals); err == nil {
				t.Errorf("toRawAmount(%q) succeeded, want error", tc.amount)
			}
		})
	}
}
