package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newImage builds an NRGBA image row by row from colors.
func newImage(width, height int, colors ...Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, c := range colors {
		img.SetNRGBA(i%width, i/width, c.NRGBA())
	}
	return img
}

// fillImage creates a width x height image of a single color.
func fillImage(width, height int, c Color) *image.NRGBA {
	colors := make([]Color, width*height)
	for i := range colors {
		colors[i] = c
	}
	return newImage(width, height, colors...)
}

func TestHistogram(t *testing.T) {
	red := RGB(255, 0, 0)
	green := RGB(0, 255, 0)
	blue := RGB(0, 0, 255)
	img := newImage(3, 2, red, green, red, blue, red, green)

	got := Histogram(img)
	want := []Entry{
		{Color: red, Count: 3},
		{Color: green, Count: 2},
		{Color: blue, Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Histogram mismatch (-want +got):\n%s", diff)
	}
}

func TestHistogram_TieBreak(t *testing.T) {
	// Equal counts are ordered by R, then G, then B.
	img := newImage(4, 1,
		RGB(10, 0, 0), RGB(0, 0, 9), RGB(0, 5, 0), RGB(0, 0, 1))

	got := Colors(Histogram(img))
	want := Palette{RGB(0, 0, 1), RGB(0, 0, 9), RGB(0, 5, 0), RGB(10, 0, 0)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tie-break order mismatch (-want +got):\n%s", diff)
	}
}

func TestHistogram_CountsSumToPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 37, 23))
	for y := 0; y < 23; y++ {
		for x := 0; x < 37; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 11), uint8((x + y) % 3), 255})
		}
	}

	h := Histogram(img)
	if total := TotalCount(h); total != 37*23 {
		t.Errorf("TotalCount: got %d, want %d", total, 37*23)
	}

	seen := make(map[Color]bool)
	for _, e := range h {
		if seen[e.Color] {
			t.Fatalf("color %v appears twice", e.Color)
		}
		seen[e.Color] = true
	}
}

func TestHistogram_EmptyImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if h := Histogram(img); len(h) != 0 {
		t.Errorf("expected empty histogram, got %d entries", len(h))
	}
}

func TestHistogram_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(10, 10, color.NRGBA{1, 2, 3, 255})
	img.SetNRGBA(11, 10, color.NRGBA{1, 2, 3, 255})

	h := Histogram(img)
	want := []Entry{{Color: RGB(1, 2, 3), Count: 2}}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("Histogram mismatch (-want +got):\n%s", diff)
	}
}

func TestColorOf(t *testing.T) {
	tests := []struct {
		name string
		in   color.Color
		want Color
	}{
		{"opaque rgba", color.RGBA{255, 128, 0, 255}, Color{255, 128, 0, 255}},
		{"nrgba", color.NRGBA{10, 20, 30, 40}, Color{10, 20, 30, 40}},
		{"gray", color.Gray{Y: 99}, Color{99, 99, 99, 255}},
		{"transparent", color.RGBA{}, Color{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorOf(tt.in); got != tt.want {
				t.Errorf("ColorOf: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorKey(t *testing.T) {
	c := Color{0x12, 0x34, 0x56, 0x78}
	if c.Key() != 0x12345678 {
		t.Errorf("Key: got %#x, want 0x12345678", c.Key())
	}
	if fromKey(c.Key()) != c {
		t.Errorf("fromKey(Key()) = %v, want %v", fromKey(c.Key()), c)
	}
}
