package quant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuantizeDirections(t *testing.T) {
	v := d("55.987")

	if got := Quantize(v, 2, Down); !got.Equal(d("55.98")) {
		t.Fatalf("down=%s want=55.98", got)
	}
	if got := Quantize(v, 2, Up); !got.Equal(d("55.99")) {
		t.Fatalf("up=%s want=55.99", got)
	}
	if got := Quantize(d("55.985"), 2, HalfUp); !got.Equal(d("55.99")) {
		t.Fatalf("halfup=%s want=55.99", got)
	}
	if got := Quantize(d("55.984"), 2, HalfUp); !got.Equal(d("55.98")) {
		t.Fatalf("halfup=%s want=55.98", got)
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	for _, dir := range []Direction{Down, Up, HalfUp} {
		once := Quantize(d("0.00112093"), 8, dir)
		twice := Quantize(once, 8, dir)
		if !once.Equal(twice) {
			t.Fatalf("dir=%d: %s != %s", dir, once, twice)
		}
	}
}

func TestStep(t *testing.T) {
	if got := Step(8); !got.Equal(d("0.00000001")) {
		t.Fatalf("step(8)=%s", got)
	}
	if got := Step(2); !got.Equal(d("0.01")) {
		t.Fatalf("step(2)=%s", got)
	}
}

func TestCents(t *testing.T) {
	if got := Cents(d("85.009")); !got.Equal(d("85.00")) {
		t.Fatalf("cents=%s want=85.00", got)
	}
}
