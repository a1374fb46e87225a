package censor

import (
	"reflect"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/beepsub/internal/types"
)

func TestApply_SingleSegment(t *testing.T) {
	segs := []types.Segment{{Start: 0.0, End: 1.5, Text: "Palavra teste aparece aqui"}}
	lines, beeps := Apply(segs, []string{"teste"})

	if len(lines) != 1 || lines[0].Text != "Palavra ***** aparece aqui" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if len(beeps) != 1 {
		t.Fatalf("expected 1 beep, got %d", len(beeps))
	}
	b := beeps[0]
	if !(0.0 <= b.Start && b.Start < b.End && b.End <= 1.5) {
		t.Fatalf("beep outside segment: %+v", b)
	}
	if b.Label != "teste" {
		t.Fatalf("unexpected label: %q", b.Label)
	}
}

func TestApply_OnlyDirtySegmentBeeps(t *testing.T) {
	segs := []types.Segment{
		{Start: 0.0, End: 1.0, Text: "A abelha chegou aqui"},
		{Start: 1.0, End: 2.5, Text: "Texto limpo"},
	}
	lines, beeps := Apply(segs, []string{"abelha"})

	gotText := []string{lines[0].Text, lines[1].Text}
	if !reflect.DeepEqual(gotText, []string{"A ****** chegou aqui", "Texto limpo"}) {
		t.Fatalf("unexpected masked text: %q", gotText)
	}
	if len(beeps) != 1 {
		t.Fatalf("expected 1 beep, got %d", len(beeps))
	}
	if !(0.0 <= beeps[0].Start && beeps[0].Start < beeps[0].End && beeps[0].End <= 1.0) {
		t.Fatalf("beep outside first segment: %+v", beeps[0])
	}
}

func TestApply_BeepsPerOccurrence(t *testing.T) {
	segs := []types.Segment{
		{Start: 0.0, End: 1.5, Text: "Palavra teste aparece aqui"},
		{Start: 2.0, End: 3.0, Text: "Nada suspeito"},
		{Start: 3.0, End: 4.0, Text: "Outro Teste no final"},
	}
	lines, beeps := Apply(segs, []string{"teste"})
	if lines[2].Text != "Outro ***** no final" {
		t.Fatalf("unexpected masked text: %q", lines[2].Text)
	}
	if len(beeps) != 2 {
		t.Fatalf("expected 2 beeps, got %d", len(beeps))
	}
	if !(3.0 <= beeps[1].Start && beeps[1].Start < beeps[1].End && beeps[1].End <= 4.0) {
		t.Fatalf("second beep outside its segment: %+v", beeps[1])
	}
}

func TestApply_NoMatches(t *testing.T) {
	segs := []types.Segment{
		{Start: 0, End: 1, Text: "texto limpo"},
		{Start: 1, End: 2, Text: "mais palavras"},
	}
	lines, beeps := Apply(segs, []string{"xxx"})
	if lines[0].Text != "texto limpo" || lines[1].Text != "mais palavras" {
		t.Fatalf("text changed: %+v", lines)
	}
	if len(beeps) != 0 {
		t.Fatalf("expected no beeps, got %+v", beeps)
	}
}

func TestApply_DecomposedText(t *testing.T) {
	segs := []types.Segment{{Start: 0, End: 2, Text: norm.NFD.String("Que palavrão aqui")}}
	lines, beeps := Apply(segs, []string{"palavrão"})
	if lines[0].Text != "Que ******** aqui" {
		t.Fatalf("unexpected masked text: %q", lines[0].Text)
	}
	if len(beeps) != 1 {
		t.Fatalf("expected 1 beep, got %+v", beeps)
	}
	// NFC offsets: char 4 of 17, 3 words.
	wantStart := 2 * 4.0 / 17
	if diff(beeps[0].Start, wantStart) > 1e-9 || beeps[0].End > 2 {
		t.Fatalf("unexpected beep %+v, want start %.4f", beeps[0], wantStart)
	}
}

func TestApply_Deterministic(t *testing.T) {
	segs := []types.Segment{
		{Start: 0, End: 2, Text: "porra de abelha, PORRA", Words: []types.Word{
			{Start: 0.1, End: 0.4, Word: " porra"},
			{Start: 0.5, End: 0.6, Word: " de"},
			{Start: 0.7, End: 1.1, Word: " abelha,"},
			{Start: 1.3, End: 1.8, Word: " PORRA"},
		}},
		{Start: 2, End: 3, Text: "merda merda"},
	}
	words := []string{"porra", "abelha", "merda"}
	l1, b1 := Apply(segs, words)
	l2, b2 := Apply(segs, words)
	if !reflect.DeepEqual(l1, l2) || !reflect.DeepEqual(b1, b2) {
		t.Fatalf("Apply is not deterministic")
	}
}

func TestEstimate_PreciseWordTimings(t *testing.T) {
	seg := types.Segment{
		Start: 0, End: 2, Text: "Palavra teste, aqui",
		Words: []types.Word{
			{Start: 0.0, End: 0.4, Word: "Palavra"},
			{Start: 0.45, End: 0.8, Word: " teste,"},
			{Start: 0.9, End: 1.2, Word: " aqui"},
		},
	}
	m := NewMatcher([]string{"teste"})
	got := Estimate(seg, m, m.FindAll(seg.Text))
	want := []types.BeepInterval{{Start: 0.45, End: 0.8, Label: "teste"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Estimate = %+v, want %+v", got, want)
	}
}

func TestEstimate_FallsBackWhenWordsDoNotMatch(t *testing.T) {
	// The timed words were split differently from the text, so only the
	// proportional estimate can place the beep.
	seg := types.Segment{
		Start: 10, End: 12, Text: "uma abelha aqui",
		Words: []types.Word{{Start: 10, End: 10.5, Word: "uma"}, {Start: 10.6, End: 11, Word: "abe"}},
	}
	m := NewMatcher([]string{"abelha"})
	got := Estimate(seg, m, m.FindAll(seg.Text))
	if len(got) != 1 {
		t.Fatalf("expected 1 approximate beep, got %+v", got)
	}
	// char 4 of 15, 3 words -> start 10 + 2*4/15, duration 2/3*0.8
	wantStart := 10 + 2*4.0/15
	wantEnd := wantStart + 2.0/3*0.8
	if diff(got[0].Start, wantStart) > 1e-9 || diff(got[0].End, wantEnd) > 1e-9 {
		t.Fatalf("unexpected estimate %+v, want %.4f..%.4f", got[0], wantStart, wantEnd)
	}
}

func TestEstimate_NeverMixesModes(t *testing.T) {
	seg := types.Segment{
		Start: 0, End: 3, Text: "porra e porra",
		Words: []types.Word{{Start: 0.2, End: 0.6, Word: "porra"}, {Start: 0.7, End: 0.8, Word: "e"}, {Start: 0.9, End: 1.0, Word: "porr"}},
	}
	m := NewMatcher([]string{"porra"})
	got := Estimate(seg, m, m.FindAll(seg.Text))
	if len(got) != 1 || got[0].Start != 0.2 {
		t.Fatalf("expected only the precise beep, got %+v", got)
	}
}

func TestEstimate_EndClampedToSegment(t *testing.T) {
	seg := types.Segment{Start: 0, End: 1, Text: "ok merda"}
	m := NewMatcher([]string{"merda"})
	got := Estimate(seg, m, m.FindAll(seg.Text))
	if len(got) != 1 || got[0].End > 1 {
		t.Fatalf("expected end clamped to 1, got %+v", got)
	}
}

func TestEstimate_ZeroDurationIsAudible(t *testing.T) {
	seg := types.Segment{Start: 5, End: 5, Text: "merda"}
	m := NewMatcher([]string{"merda"})
	got := Estimate(seg, m, m.FindAll(seg.Text))
	if len(got) != 1 {
		t.Fatalf("expected 1 beep, got %+v", got)
	}
	if got[0].Start != 5 || got[0].End <= got[0].Start {
		t.Fatalf("expected a widened interval at 5s, got %+v", got[0])
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
