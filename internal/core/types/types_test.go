package types

import (
	"math"
	"testing"
)

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Quantity
	}{
		{"nil", nil, 0},
		{"float", float64(3), 3},
		{"float rounds", 2.6, 3},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"int", 5, 5},
		{"int64", int64(7), 7},
		{"numeric string", "4", 4},
		{"string with comma decimal", "2,5", 3},
		{"padded string", " 6 ", 6},
		{"empty string", "", 0},
		{"garbage string", "beaucoup", 0},
		{"unsupported type", []int{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceQuantity(tt.in); got != tt.want {
				t.Errorf("CoerceQuantity(%#v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuantityHelpers(t *testing.T) {
	if Quantity(0).IsPositive() || Quantity(-1).IsPositive() {
		t.Error("IsPositive() = true for non-positive quantity")
	}
	if !Quantity(1).IsPositive() {
		t.Error("IsPositive() = false for positive quantity")
	}
	if got := Quantity(5).Min(3); got != 3 {
		t.Errorf("Min() = %d, want 3", got)
	}
	if got := Quantity(2).Min(9); got != 2 {
		t.Errorf("Min() = %d, want 2", got)
	}
}

func TestParseRemise(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "0", false},
		{"plain", "10", "10", false},
		{"decimal", "2.5", "2.5", false},
		{"comma decimal", "2,5", "2.5", false},
		{"percent sign", "10%", "10", false},
		{"percent with space", "10 %", "10", false},
		{"garbage", "dix", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemise(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRemise(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseRemise(%q) = %s, want %s", tt.in, got.String(), tt.want)
			}
		})
	}
}
