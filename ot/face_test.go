package ot

import "testing"

func fvarFontWithWeightAxis() *Font {
	fvar := &FvarTable{Axes: []VariationAxis{
		{Tag: T("wght"), MinValue: Fixed16Dot16(100 << 16), DefaultValue: Fixed16Dot16(400 << 16), MaxValue: Fixed16Dot16(900 << 16)},
	}}
	fvar.self = fvar
	return &Font{tables: map[Tag]Table{T("fvar"): fvar}}
}

func TestFaceSetVariationNormalizesAroundDefault(t *testing.T) {
	f := &Face{otf: fvarFontWithWeightAxis(), coords: []float64{0}}
	f.SetVariation(T("wght"), 650)
	got := f.VariationCoordinates()[0]
	want := (650.0 - 400.0) / (900.0 - 400.0)
	if !closeTo(got, want, 1e-6) {
		t.Fatalf("expected normalized coord %v, got %v", want, got)
	}
}

func TestFaceSetVariationClampsToAxisRange(t *testing.T) {
	f := &Face{otf: fvarFontWithWeightAxis(), coords: []float64{0}}
	f.SetVariation(T("wght"), 5000)
	got := f.VariationCoordinates()[0]
	if got != 1 {
		t.Fatalf("expected clamped-to-max coordinate 1, got %v", got)
	}
	f.SetVariation(T("wght"), -100)
	got = f.VariationCoordinates()[0]
	if got != -1 {
		t.Fatalf("expected clamped-to-min coordinate -1, got %v", got)
	}
}

func TestFaceSetVariationUnknownAxisIgnored(t *testing.T) {
	f := &Face{otf: fvarFontWithWeightAxis(), coords: []float64{0}}
	f.SetVariation(T("ital"), 1)
	if got := f.VariationCoordinates()[0]; got != 0 {
		t.Fatalf("expected unknown axis to leave coordinates untouched, got %v", got)
	}
}

func TestFaceHasNonDefaultVariationCoordinates(t *testing.T) {
	f := &Face{otf: fvarFontWithWeightAxis(), coords: []float64{0}}
	if f.HasNonDefaultVariationCoordinates() {
		t.Fatalf("expected no non-default coordinates at axis defaults")
	}
	f.SetVariation(T("wght"), 700)
	if !f.HasNonDefaultVariationCoordinates() {
		t.Fatalf("expected non-default coordinates after SetVariation")
	}
}

func TestFaceVariationAxes(t *testing.T) {
	f := &Face{otf: fvarFontWithWeightAxis()}
	axes := f.VariationAxes()
	if len(axes) != 1 || axes[0].Tag.String() != "wght" {
		t.Fatalf("expected single wght axis, got %+v", axes)
	}
}

func TestFaceVariationAxesNonVariableFont(t *testing.T) {
	f := &Face{otf: &Font{tables: map[Tag]Table{}}}
	if axes := f.VariationAxes(); axes != nil {
		t.Fatalf("expected nil axes for a non-variable font, got %+v", axes)
	}
}

func TestFaceScriptSupportNoGSUB(t *testing.T) {
	f := &Face{otf: &Font{}}
	script, lang := f.ScriptSupport(T("latn"), T("ENG "))
	if script != DFLT || lang != DFLT {
		t.Fatalf("expected DFLT/DFLT with no GSUB, got %s/%s", script, lang)
	}
}
