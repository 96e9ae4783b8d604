package colorprofile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSRGBClassification(t *testing.T) {
	p := SRGB()
	if p == nil {
		t.Fatal("SRGB() returned nil")
	}
	if !p.IsSRGB() {
		t.Error("SRGB().IsSRGB() = false, want true")
	}
	if p.IsLinear() {
		t.Error("SRGB().IsLinear() = true, want false")
	}
	if SRGB() != p {
		t.Error("SRGB() returned a different instance on second call")
	}
}

func TestCreateLinear(t *testing.T) {
	lin, ok := SRGB().CreateLinear(false)
	if !ok {
		t.Fatal("CreateLinear failed for sRGB")
	}
	if !lin.IsLinear() {
		t.Error("linear variant IsLinear() = false")
	}
	if lin.IsSRGB() {
		t.Error("linear variant IsSRGB() = true")
	}

	same, ok := lin.CreateLinear(false)
	if !ok || same != lin {
		t.Error("CreateLinear(false) on a linear profile should return the receiver")
	}

	forced, ok := lin.CreateLinear(true)
	if !ok {
		t.Fatal("CreateLinear(true) failed")
	}
	if forced == lin {
		t.Error("CreateLinear(true) returned the receiver, want a fresh profile")
	}
	if !forced.IsLinear() {
		t.Error("forced variant IsLinear() = false")
	}
}

func TestNewRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("not a profile")},
		{"zeros", make([]byte, 256)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.data); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("New() error = %v, want ErrInvalidProfile", err)
			}
		})
	}
}

func TestTransformLinearize(t *testing.T) {
	pix := []float32{
		0, 0.5, 1, 0.25,
		0.2, 0.2, 0.2, 1,
	}
	if err := Default.Transform(pix, 4, SRGB(), LinearSRGB()); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	want := []float32{
		0, 0.21404, 1, 0.25,
		0.03310, 0.03310, 0.03310, 1,
	}
	if diff := cmp.Diff(want, pix, cmpopts.EquateApprox(0, 1e-3)); diff != "" {
		t.Errorf("linearized pixels mismatch (-want +got):\n%s", diff)
	}

	if err := Default.Transform(pix, 4, LinearSRGB(), SRGB()); err != nil {
		t.Fatalf("inverse Transform failed: %v", err)
	}
	orig := []float32{0, 0.5, 1, 0.25, 0.2, 0.2, 0.2, 1}
	if diff := cmp.Diff(orig, pix, cmpopts.EquateApprox(0, 1e-3)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformKeepsHDRRange(t *testing.T) {
	pix := []float32{2, 4, 0.5}
	if err := Default.Transform(pix, 3, LinearSRGB(), SRGB()); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if pix[0] <= 1 || pix[1] <= pix[0] {
		t.Errorf("HDR values clamped: %v", pix)
	}
}

func TestTransformGray(t *testing.T) {
	pix := []float32{0.5, 0.75}
	if err := Default.Transform(pix, 2, SRGB(), LinearSRGB()); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if pix[1] != 0.75 {
		t.Errorf("alpha changed to %v", pix[1])
	}
	if pix[0] < 0.2 || pix[0] > 0.22 {
		t.Errorf("gray value = %v, want ~0.214", pix[0])
	}
}

func TestTransformErrors(t *testing.T) {
	pix := []float32{0.5, 0.5, 0.5}
	if err := Default.Transform(pix, 3, nil, SRGB()); !errors.Is(err, ErrUnsupportedConversion) {
		t.Errorf("nil source error = %v, want ErrUnsupportedConversion", err)
	}
	if err := Default.Transform(pix, 5, SRGB(), LinearSRGB()); !errors.Is(err, ErrUnsupportedConversion) {
		t.Errorf("bad channel count error = %v, want ErrUnsupportedConversion", err)
	}
}
