package dither

import (
	"errors"
	"testing"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

func TestMatrix_ShiftAndDivisorDiffer(t *testing.T) {
	shift := Matrix{Shift: 4}
	div := Matrix{Divisor: 16}

	tests := []struct {
		name      string
		e, w      int
		wantShift int
		wantDiv   int
	}{
		{"positive", 32, 7, 14, 14},
		{"positive remainder", 17, 1, 1, 1},
		{"negative exact", -32, 1, -2, -2},
		{"negative remainder", -1, 1, -1, 0},
		{"negative large", -127, 7, -56, -55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shift.spread(tt.e, tt.w); got != tt.wantShift {
				t.Errorf("shift: got %d, want %d", got, tt.wantShift)
			}
			if got := div.spread(tt.e, tt.w); got != tt.wantDiv {
				t.Errorf("divisor: got %d, want %d", got, tt.wantDiv)
			}
		})
	}
}

func TestMatrix_WeightsSum(t *testing.T) {
	tests := []struct {
		m    Matrix
		want int // total weight
		norm int // 1<<Shift or Divisor
	}{
		{FloydSteinbergMatrix, 16, 16},
		{AtkinsonMatrix, 6, 8},
		{StuckiMatrix, 42, 42},
		{BurkesMatrix, 32, 32},
		{JarvisMatrix, 48, 48},
	}

	for _, tt := range tests {
		t.Run(tt.m.Name, func(t *testing.T) {
			sum := 0
			for _, o := range tt.m.Entries {
				sum += o.Weight
			}
			if sum != tt.want {
				t.Errorf("weights sum to %d, want %d", sum, tt.want)
			}
			norm := tt.m.Divisor
			if norm == 0 {
				norm = 1 << tt.m.Shift
			}
			if norm != tt.norm {
				t.Errorf("normalization %d, want %d", norm, tt.norm)
			}
			if err := tt.m.validate(); err != nil {
				t.Errorf("validate: %v", err)
			}
		})
	}
}

func TestNewDiffusion_InvalidMatrix(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"no normalization", Matrix{Name: "x", Entries: []Offset{{1, 0, 1}}}},
		{"negative divisor", Matrix{Name: "x", Entries: []Offset{{1, 0, 1}}, Divisor: -2}},
		{"points left", Matrix{Name: "x", Entries: []Offset{{-1, 0, 1}}, Shift: 1}},
		{"points at self", Matrix{Name: "x", Entries: []Offset{{0, 0, 1}}, Shift: 1}},
		{"points up", Matrix{Name: "x", Entries: []Offset{{0, -1, 1}}, Shift: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDiffusion(tt.m); !errors.Is(err, ErrInvalidMatrix) {
				t.Errorf("got %v, want ErrInvalidMatrix", err)
			}
		})
	}
}

func TestDiffusion_CustomMatrix(t *testing.T) {
	// All error to the right neighbor: a 50% gray row alternates exactly.
	d, err := NewDiffusion(Matrix{Name: "right", Entries: []Offset{{1, 0, 1}}, Shift: 0, Divisor: 1})
	if err != nil {
		t.Fatalf("NewDiffusion failed: %v", err)
	}
	if err := d.Setup(bw, false); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	out, err := d.Dither(createInMemoryImage(6, 1, palette.RGB(128, 128, 128)))
	if err != nil {
		t.Fatalf("Dither failed: %v", err)
	}
	for x := 0; x < 6; x++ {
		if want := uint8(1 - x%2); out.Pix[x] != want {
			t.Errorf("pixel %d: got %d, want %d", x, out.Pix[x], want)
		}
	}
}

func TestOrdered_Gamma(t *testing.T) {
	if _, err := NewOrdered(4, 0); err == nil {
		t.Error("NewOrdered accepted gamma 0")
	}
	if _, err := NewOrdered(3, 1); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("NewOrdered(3): got %v, want ErrUnknownMode", err)
	}

	o, err := NewOrdered(4, 2.0)
	if err != nil {
		t.Fatalf("NewOrdered failed: %v", err)
	}
	if err := o.Setup(palette.Palette{palette.RGB(0, 128, 255)}, false); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	got := o.searcher.Color(0)
	want := palette.RGB(0, 64, 255)
	if got != want {
		t.Errorf("adjusted color: got %v, want %v", got, want)
	}
	// The output palette is the caller's, not the adjusted copy.
	if o.palette[0] != palette.RGB(0, 128, 255) {
		t.Errorf("output palette modified: %v", o.palette[0])
	}
}
