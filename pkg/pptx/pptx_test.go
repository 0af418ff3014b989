package pptx

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

func samplePresentation() *Presentation {
	return &Presentation{
		Title:   "Panels & <Tokens>",
		Created: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		Width:   10,
		Height:  7.5,
		Slides: []Slide{
			{Shapes: []TextBox{
				{Text: "Tokens from panel P1", Left: 0.4, Top: 0.4, Width: 9.2, Height: 0.4, FontSize: 20, FontName: "Arial", Bold: true},
				{Text: "A&B", Left: 0.45, Top: 1.05, Width: 0.45, Height: 0.3, FontSize: 14, FontName: "Arial", WordWrap: true},
				{Text: "トークン", Left: 2.75, Top: 1.05, Width: 0.6, Height: 0.3, FontSize: 14, FontName: "Arial", WordWrap: true},
			}},
			{Shapes: []TextBox{
				{Text: "Tokens from panel P2", Left: 0.4, Top: 0.4, Width: 9.2, Height: 0.4},
				{Text: "line one\nline two", Left: 0.45, Top: 1.05, Width: 2, Height: 0.6},
			}},
		},
	}
}

func TestWriteToPackageParts(t *testing.T) {
	var buf bytes.Buffer
	n, err := samplePresentation().WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() returned %d, wrote %d bytes", n, buf.Len())
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	got := map[string]bool{}
	for _, f := range zr.File {
		got[f.Name] = true
	}

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/app.xml",
		"docProps/core.xml",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide2.xml.rels",
	} {
		if !got[name] {
			t.Errorf("package missing part %s", name)
		}
	}
	if got["ppt/slides/slide3.xml"] {
		t.Error("package has an unexpected third slide")
	}
}

func TestWriteToGeometry(t *testing.T) {
	data, err := samplePresentation().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	read := func(name string) string {
		for _, f := range zr.File {
			if f.Name == name {
				b, err := readZipFile(f)
				if err != nil {
					t.Fatal(err)
				}
				return string(b)
			}
		}
		t.Fatalf("part %s not found", name)
		return ""
	}

	pres := read("ppt/presentation.xml")
	if !strings.Contains(pres, `<p:sldSz cx="9144000" cy="6858000"/>`) {
		t.Errorf("presentation.xml has wrong slide size:\n%s", pres)
	}

	slide := read("ppt/slides/slide1.xml")
	for _, want := range []string{
		`<a:off x="365760" y="365760"/><a:ext cx="8412480" cy="365760"/>`,
		`sz="2000" b="1"`,
		`sz="1400"`,
		`<a:latin typeface="Arial"/>`,
		`wrap="square"`,
		`<a:t>A&amp;B</a:t>`,
	} {
		if !strings.Contains(slide, want) {
			t.Errorf("slide1.xml missing %q", want)
		}
	}

	core := read("docProps/core.xml")
	if !strings.Contains(core, "Panels &amp; &lt;Tokens&gt;") {
		t.Errorf("core.xml title not escaped:\n%s", core)
	}
	if !strings.Contains(core, "2025-03-14T09:26:53Z") {
		t.Errorf("core.xml missing created timestamp:\n%s", core)
	}
}

func TestWriteToDeterministic(t *testing.T) {
	a, err := samplePresentation().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	b, err := samplePresentation().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical presentations encoded differently")
	}
}

func TestWriteToInvalidSize(t *testing.T) {
	p := &Presentation{Width: 0, Height: 7.5}
	if _, err := p.WriteTo(&bytes.Buffer{}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestReadTextRoundTrip(t *testing.T) {
	data, err := samplePresentation().Bytes()
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	want := []string{
		"Tokens from panel P1\nA&B\nトークン",
		"Tokens from panel P2\nline one\nline two",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadText() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTextEmptyDeck(t *testing.T) {
	data, err := (&Presentation{Width: 10, Height: 7.5}).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d slides, want 0", len(got))
	}
}

func TestReadTextInvalid(t *testing.T) {
	tests := []struct {
		name string
		data func() []byte
	}{
		{"not a zip", func() []byte { return []byte("plain text") }},
		{"zip without presentation", func() []byte {
			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			w, _ := zw.Create("hello.txt")
			_, _ = w.Write([]byte("hi"))
			_ = zw.Close()
			return buf.Bytes()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data()
			_, err := ReadText(bytes.NewReader(data), int64(len(data)))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadText() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestEMU(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1, 914400},
		{0.4, 365760},
		{10, 9144000},
		{7.5, 6858000},
	}
	for _, tt := range tests {
		if got := EMU(tt.in); got != tt.want {
			t.Errorf("EMU(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
