package xhtml

import (
	"errors"
	"testing"
)

func TestIterStepOut(t *testing.T) {
	source := `染めた<span>20</span>歳くらいの男<span>!!</span>（だとか）`

	it := Root(source).Iter()
	for _, want := range []string{"20", "!!"} {
		tag, ok, err := it.NextByEl()
		if err != nil || !ok {
			t.Fatalf("NextByEl() = %v, %v", ok, err)
		}
		_, inner, err := it.StepOut(tag)
		if err != nil {
			t.Fatalf("StepOut() error = %v", err)
		}
		if inner != want {
			t.Errorf("StepOut() inner = %q, want %q", inner, want)
		}
	}
	if _, ok, err := it.NextByEl(); ok || err != nil {
		t.Errorf("NextByEl() at end = %v, %v, want false, nil", ok, err)
	}
}

func TestIterJustNext(t *testing.T) {
	source := `染めた<span>20</span>歳くらいの男<span>!!</span>（だとか）`

	it := Root(source).Iter()
	for i := 0; i < 2; i++ {
		tag, ok, err := it.NextByEl()
		if err != nil || !ok {
			t.Fatalf("NextByEl() #%d = %v, %v", i, ok, err)
		}
		if tag.Name != "span" {
			t.Errorf("NextByEl() #%d name = %q, want span", i, tag.Name)
		}
	}
	if _, ok, err := it.NextByEl(); ok || err != nil {
		t.Errorf("NextByEl() at end = %v, %v, want false, nil", ok, err)
	}
}

func TestIterStepOutNested(t *testing.T) {
	source := "<span>a<span>b</span>c</span>d"

	it := Root(source).Iter()
	outer, _, err := it.NextByEl()
	if err != nil {
		t.Fatal(err)
	}
	end, inner, err := it.StepOut(outer)
	if err != nil {
		t.Fatalf("StepOut() error = %v", err)
	}
	if inner != "a<span>b</span>c" {
		t.Errorf("StepOut() inner = %q, want %q", inner, "a<span>b</span>c")
	}
	if end.Kind != Closing || end.Before() != 22 {
		t.Errorf("StepOut() end = %v at %d, want closing at 22", end.Kind, end.Before())
	}
	if it.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", it.Depth())
	}

	closing, ok, err := it.NextByTag()
	if err != nil || !ok {
		t.Fatalf("NextByTag() = %v, %v", ok, err)
	}
	if !closing.IsRoot() || closing.Kind != Closing || closing.Leading != "d" {
		t.Errorf("NextByTag() = %+v, want root closing with trailing text", closing)
	}
}

func TestIterIncremental(t *testing.T) {
	source := "<body><div><p>a</p><p>b</p></div></body>"
	div, ok, err := FindFirst(source, "div")
	if err != nil || !ok {
		t.Fatalf("FindFirst(div) = %v, %v", ok, err)
	}

	it := div.Iter()
	want := []struct {
		name string
		kind Kind
	}{
		{"p", Opening}, {"p", Closing}, {"p", Opening}, {"p", Closing}, {"div", Closing},
	}
	for i, w := range want {
		tag, ok, err := it.NextByTag()
		if err != nil || !ok {
			t.Fatalf("NextByTag() #%d = %v, %v", i, ok, err)
		}
		if tag.Name != w.name || tag.Kind != w.kind {
			t.Errorf("NextByTag() #%d = %s %v, want %s %v", i, tag.Name, tag.Kind, w.name, w.kind)
		}
	}
	if _, ok, err := it.NextByTag(); ok || err != nil {
		t.Errorf("NextByTag() after div = %v, %v, want false, nil", ok, err)
	}
}

func TestIterSyntheticRootClose(t *testing.T) {
	it := Root("aa<br/>bb").Iter()

	br, ok, err := it.NextByTag()
	if err != nil || !ok {
		t.Fatalf("NextByTag() = %v, %v", ok, err)
	}
	if br.Name != "br" || br.Kind != SelfClosing || br.Leading != "aa" {
		t.Errorf("NextByTag() = %+v, want self-closing br after aa", br)
	}

	end, ok, err := it.NextByTag()
	if err != nil || !ok {
		t.Fatalf("NextByTag() = %v, %v", ok, err)
	}
	if !end.IsRoot() || end.Kind != Closing || end.Leading != "bb" {
		t.Errorf("NextByTag() = %+v, want root closing", end)
	}

	if _, ok, err := it.NextByTag(); ok || err != nil {
		t.Errorf("NextByTag() after root = %v, %v, want false, nil", ok, err)
	}
}

func TestIterMismatch(t *testing.T) {
	it := Root("<p><span>a</p></span>").Iter()
	var err error
	for err == nil {
		var ok bool
		_, ok, err = it.NextByTag()
		if !ok && err == nil {
			t.Fatal("reached end of input without a mismatch error")
		}
	}
	if !errors.Is(err, ErrClosingMismatch) {
		t.Fatalf("error = %v, want ErrClosingMismatch", err)
	}
	var syn *SyntaxError
	if !errors.As(err, &syn) || syn.Offset != 10 {
		t.Errorf("error = %v, want SyntaxError at offset 10", err)
	}
}

func TestIterUnclosed(t *testing.T) {
	it := Root("<p>abc").Iter()
	if _, _, err := it.NextByTag(); err != nil {
		t.Fatalf("first NextByTag() error = %v", err)
	}
	_, _, err := it.NextByTag()
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("NextByTag() error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestStepOutNotOpen(t *testing.T) {
	source := "<p>a</p>"
	p, _, err := FindFirst(source, "p")
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = Root(source).Iter().StepOut(p)
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("StepOut() error = %v, want ErrNotOpen", err)
	}
}

func TestFindFirst(t *testing.T) {
	hoge, ok, err := FindFirst("<hoge>after hoge", "hoge")
	if err != nil || !ok {
		t.Fatalf("FindFirst() = %v, %v", ok, err)
	}
	if hoge.Name != "hoge" || hoge.Before() != 0 || hoge.After() != 6 {
		t.Errorf("FindFirst() = %q at %d..%d, want hoge at 0..6", hoge.Name, hoge.Before(), hoge.After())
	}

	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uuid_id">
<metadata
xmlns:opf="http://www.idpf.org/2007/opf"
xmlns:dc="http://purl.org/dc/elements/1.1/"
>
<dc:title>やっほう</dc:title></metadata></package>`
	if _, ok, err := FindFirst(opf, "manifest"); ok || err != nil {
		t.Errorf("FindFirst(manifest) = %v, %v, want false, nil", ok, err)
	}
	title, ok, err := FindFirst(opf, "dc:title")
	if err != nil || !ok {
		t.Fatalf("FindFirst(dc:title) = %v, %v", ok, err)
	}
	if _, inner, _ := title.End(); inner != "やっほう" {
		t.Errorf("dc:title inner = %q, want %q", inner, "やっほう")
	}
}

func TestEnd(t *testing.T) {
	span, _, err := FindFirst("aa<span>bb</span>cc<span>dd</span>ee", "span")
	if err != nil {
		t.Fatal(err)
	}
	if _, inner, err := span.End(); err != nil || inner != "bb" {
		t.Errorf("End() = %q, %v, want bb", inner, err)
	}

	hr, _, err := FindFirst("aa<hr/>bb", "hr")
	if err != nil {
		t.Fatal(err)
	}
	end, inner, err := hr.End()
	if err != nil || inner != "" || end != hr {
		t.Errorf("End() on self-closing = %+v, %q, %v", end, inner, err)
	}

	it := Root("aa<span>bb</span>cc").Iter()
	for {
		tag, ok, err := it.NextByEl()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if _, _, err := tag.End(); err != nil {
			t.Errorf("End(%s) error = %v", tag.Name, err)
		}
	}
}

func TestSpanWith(t *testing.T) {
	source := "<a>x<b/>y</a>"
	it := Root(source).Iter()
	open, _, _ := it.NextByTag()
	end, _, err := it.StepOut(open)
	if err != nil {
		t.Fatal(err)
	}
	if got := open.SpanWith(end); got != "x<b/>y" {
		t.Errorf("SpanWith() = %q, want %q", got, "x<b/>y")
	}
	if got := end.SpanWith(open); got != "x<b/>y" {
		t.Errorf("reverse SpanWith() = %q, want %q", got, "x<b/>y")
	}
}
