package types

import (
	"math"
	"testing"
)

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want int64
		ok   bool
	}{
		{"Small", 2, 3, 5, true},
		{"Zero", 0, 0, 0, true},
		{"Negative", -5, 3, -2, true},
		{"Max minus one", math.MaxInt64 - 1, 1, math.MaxInt64, true},
		{"Overflow up", math.MaxInt64, 1, 0, false},
		{"Overflow down", math.MinInt64, -1, 0, false},
		{"Min plus one", math.MinInt64, 1, math.MinInt64 + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CheckedAdd(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckedMul(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want int64
		ok   bool
	}{
		{"Small", 6, 7, 42, true},
		{"Zero left", 0, math.MaxInt64, 0, true},
		{"Zero right", math.MaxInt64, 0, 0, true},
		{"Negative", -3, 4, -12, true},
		{"Max by one", math.MaxInt64, 1, math.MaxInt64, true},
		{"Overflow", math.MaxInt64, 2, 0, false},
		{"Overflow both large", math.MaxInt64 / 2, 3, 0, false},
		{"Min by minus one", math.MinInt64, -1, 0, false},
		{"Minus one by min", -1, math.MinInt64, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CheckedMul(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMulDivFloor(t *testing.T) {
	tests := []struct {
		name    string
		a, b, d int64
		want    int64
		ok      bool
	}{
		{"Exact", 20, 3, 10, 6, true},
		{"Floors down", 10, 1, 3, 3, true},
		{"Floors two thirds", 10, 2, 3, 6, true},
		{"Whole share", 20, 7, 10, 14, true},
		{"Zero numerator", 0, 5, 3, 0, true},
		{"Divide by zero", 10, 2, 0, 0, false},
		{"Numerator overflow", math.MaxInt64, 2, 4, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MulDivFloor(tt.a, tt.b, tt.d)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMoneyAddChecked(t *testing.T) {
	if got, ok := USD(100).AddChecked(USD(250)); !ok || !got.Equal(USD(350)) {
		t.Errorf("got %v ok=%v, want $3.50 ok=true", got, ok)
	}
	if _, ok := USD(math.MaxInt64).AddChecked(USD(1)); ok {
		t.Error("expected overflow")
	}
}

func TestMoneyMulChecked(t *testing.T) {
	if got, ok := USD(200).MulChecked(3); !ok || !got.Equal(USD(600)) {
		t.Errorf("got %v ok=%v, want $6.00 ok=true", got, ok)
	}
	if _, ok := USD(math.MaxInt64).MulChecked(2); ok {
		t.Error("expected overflow")
	}
}

func TestMoneyProRata(t *testing.T) {
	tests := []struct {
		name        string
		total       Money
		part, whole int64
		want        Money
		ok          bool
	}{
		{"One third of ten", USD(10), 1, 3, USD(3), true},
		{"Two thirds of ten", USD(10), 2, 3, USD(6), true},
		{"Three tenths of twenty", USD(20), 3, 10, USD(6), true},
		{"Seven tenths of twenty", USD(20), 7, 10, USD(14), true},
		{"Whole pool", USD(500), 4, 4, USD(500), true},
		{"Zero whole", USD(10), 1, 0, Money{}, false},
		{"Numerator overflow", USD(math.MaxInt64), 2, 3, Money{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.total.ProRata(tt.part, tt.whole)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkMulDivFloor(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = MulDivFloor(1_000_000, 37, 113)
	}
}
