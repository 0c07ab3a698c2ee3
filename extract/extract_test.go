package extract

import (
	"reflect"
	"testing"

	"github.com/dictumlabs/dictum/types"
)

func TestScan_DocBlock(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`before <doc type="contract" title="NDA">Section 1.</doc> after`)

	if len(res.Artifacts) != 1 {
		t.Fatalf("Artifacts = %d, want 1", len(res.Artifacts))
	}
	got := res.Artifacts[0]
	want := types.ArtifactBlock{Type: types.ArtifactContract, Title: "NDA", Content: "Section 1."}
	if got != want {
		t.Errorf("artifact = %+v, want %+v", got, want)
	}
}

func TestScan_UnknownDocTypeFallsBackToDocument(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<doc type="spreadsheet" title="Costs">x</doc>`)
	if len(res.Artifacts) != 1 {
		t.Fatalf("Artifacts = %d, want 1", len(res.Artifacts))
	}
	if res.Artifacts[0].Type != types.ArtifactDocument {
		t.Errorf("Type = %v, want document", res.Artifacts[0].Type)
	}
}

func TestScan_Idempotent(t *testing.T) {
	text := `<doc type="code" title="main.go">package main</doc>`
	s := NewScanner()

	first := s.Scan(text)
	if len(first.Artifacts) != 1 {
		t.Fatalf("first scan Artifacts = %d, want 1", len(first.Artifacts))
	}

	second := s.Scan(text)
	if !second.Empty() {
		t.Errorf("second scan of unchanged text produced %+v", second)
	}
}

func TestScan_UnclosedBlockNotEmitted(t *testing.T) {
	s := NewScanner()

	res := s.Scan(`<doc type="analysis" title="Risk">partial content`)
	if !res.Empty() {
		t.Fatalf("unclosed block produced %+v", res)
	}

	// Closing tag arrives: block completes with full content.
	res = s.Scan(`<doc type="analysis" title="Risk">partial content, now complete</doc>`)
	if len(res.Artifacts) != 1 {
		t.Fatalf("Artifacts = %d, want 1", len(res.Artifacts))
	}
	if res.Artifacts[0].Content != "partial content, now complete" {
		t.Errorf("Content = %q", res.Artifacts[0].Content)
	}
}

func TestScan_OpeningTagSplitAcrossChunks(t *testing.T) {
	s := NewScanner()

	if res := s.Scan("intro <pl"); !res.Empty() {
		t.Fatalf("partial tag produced %+v", res)
	}
	res := s.Scan("intro <plan>steps</plan>")
	if len(res.Plans) != 1 || res.Plans[0].Content != "steps" {
		t.Fatalf("Plans = %+v, want one plan %q", res.Plans, "steps")
	}
}

func TestScan_UnclosedKindDoesNotBlockOtherKinds(t *testing.T) {
	s := NewScanner()
	text := `<doc type="document" title="Draft">still streaming... <plan>1. outline</plan>`

	res := s.Scan(text)
	if len(res.Artifacts) != 0 {
		t.Errorf("unclosed doc emitted: %+v", res.Artifacts)
	}
	if len(res.Plans) != 1 || res.Plans[0].Content != "1. outline" {
		t.Errorf("Plans = %+v, want the closed plan", res.Plans)
	}
}

func TestScan_EditBlock(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<edit target="NDA"><replace><old>draft</old><new>final</new></replace>` +
		`<replace><old>30 days</old><new>60 days</new></replace></edit>`)

	if len(res.Edits) != 1 {
		t.Fatalf("Edits = %d, want 1", len(res.Edits))
	}
	got := res.Edits[0]
	want := types.EditInstruction{
		TargetTitle: "NDA",
		Replacements: []types.Replacement{
			{Old: "draft", New: "final"},
			{Old: "30 days", New: "60 days"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edit = %+v, want %+v", got, want)
	}
}

func TestScan_EditWithoutReplacementsIsMalformed(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<edit target="NDA">no pairs here</edit>`)
	if len(res.Edits) != 0 || res.Malformed != 1 {
		t.Errorf("result = %+v, want zero edits and one malformed", res)
	}
}

func TestScan_TaskBlock(t *testing.T) {
	s := NewScanner()
	res := s.Scan("<task title=\"Filing checklist\">\n- [x] Draft complaint\n- [ ] Serve defendant\nplain line ignored\n</task>")

	if len(res.Tasks) != 1 {
		t.Fatalf("Tasks = %d, want 1", len(res.Tasks))
	}
	got := res.Tasks[0]
	if got.Title != "Filing checklist" {
		t.Errorf("Title = %q", got.Title)
	}
	wantItems := []types.TaskItem{
		{Text: "Draft complaint", Done: true},
		{Text: "Serve defendant", Done: false},
	}
	if !reflect.DeepEqual(got.Items, wantItems) {
		t.Errorf("Items = %+v, want %+v", got.Items, wantItems)
	}
}

func TestScan_ClarifyBlock(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<clarify>[{"question":"Which state?","options":["CA","NY"]},{"question":"Signed copy available?"}]</clarify>`)

	if len(res.Clarifications) != 2 {
		t.Fatalf("Clarifications = %d, want 2", len(res.Clarifications))
	}
	if res.Clarifications[0].Question != "Which state?" ||
		!reflect.DeepEqual(res.Clarifications[0].Options, []string{"CA", "NY"}) {
		t.Errorf("first question = %+v", res.Clarifications[0])
	}
}

// Malformed clarify JSON yields nothing, is never retried, and does not
// prevent a later well-formed clarify block from extracting.
func TestScan_MalformedClarifyThenWellFormed(t *testing.T) {
	s := NewScanner()

	res := s.Scan(`<clarify>[{"question": broken</clarify>`)
	if len(res.Clarifications) != 0 || res.Malformed != 1 {
		t.Fatalf("malformed clarify: result = %+v", res)
	}

	res = s.Scan(`<clarify>[{"question": broken</clarify> text <clarify>[{"question":"OK?"}]</clarify>`)
	if res.Malformed != 0 {
		t.Errorf("malformed block was retried: %+v", res)
	}
	if len(res.Clarifications) != 1 || res.Clarifications[0].Question != "OK?" {
		t.Errorf("Clarifications = %+v, want the well-formed block", res.Clarifications)
	}
}

func TestScan_TitleAndTargetWhitespaceTrimmed(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<doc type="contract" title=" NDA ">x</doc>` +
		`<edit target=" NDA "><replace><old>x</old><new>y</new></replace></edit>` +
		`<task title=" Review ">- [ ] read</task>`)

	if len(res.Artifacts) != 1 || res.Artifacts[0].Title != "NDA" {
		t.Fatalf("Artifacts = %+v, want one titled NDA", res.Artifacts)
	}
	if len(res.Edits) != 1 || res.Edits[0].TargetTitle != "NDA" {
		t.Fatalf("Edits = %+v, want one targeting NDA", res.Edits)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].Title != "Review" {
		t.Fatalf("Tasks = %+v, want one titled Review", res.Tasks)
	}
}

func TestScan_BlankTitleIsMalformed(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<doc type="contract" title="   ">x</doc>`)
	if len(res.Artifacts) != 0 {
		t.Errorf("Artifacts = %d, want 0", len(res.Artifacts))
	}
	if res.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", res.Malformed)
	}
}

func TestScan_DocMissingTitleIsMalformed(t *testing.T) {
	s := NewScanner()
	res := s.Scan(`<doc type="document">anonymous</doc>`)
	if len(res.Artifacts) != 0 || res.Malformed != 1 {
		t.Errorf("result = %+v, want zero artifacts and one malformed", res)
	}
}

func TestScan_InterleavedKinds(t *testing.T) {
	s := NewScanner()
	text := `<plan>outline</plan>` +
		`<doc type="claim" title="Claim A">first</doc>` +
		`<task title="Next steps">- [ ] review</task>` +
		`<doc type="claim" title="Claim B">second</doc>`

	res := s.Scan(text)
	if len(res.Plans) != 1 || len(res.Tasks) != 1 {
		t.Fatalf("Plans = %d, Tasks = %d, want 1 and 1", len(res.Plans), len(res.Tasks))
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("Artifacts = %d, want 2", len(res.Artifacts))
	}
	if res.Artifacts[0].Title != "Claim A" || res.Artifacts[1].Title != "Claim B" {
		t.Errorf("artifact order = %q, %q", res.Artifacts[0].Title, res.Artifacts[1].Title)
	}
}

// Growing text across many scans: every block is emitted exactly once.
func TestScan_IncrementalGrowth(t *testing.T) {
	full := `intro <doc type="document" title="Letter">Dear counsel,</doc>` +
		` middle <edit target="Letter"><replace><old>Dear</old><new>Re:</new></replace></edit> end`

	s := NewScanner()
	var artifacts, edits int
	for i := 0; i <= len(full); i += 7 {
		end := i + 7
		if end > len(full) {
			end = len(full)
		}
		res := s.Scan(full[:end])
		artifacts += len(res.Artifacts)
		edits += len(res.Edits)
	}
	res := s.Scan(full)
	artifacts += len(res.Artifacts)
	edits += len(res.Edits)

	if artifacts != 1 || edits != 1 {
		t.Errorf("totals = (%d artifacts, %d edits), want (1, 1)", artifacts, edits)
	}
}

func TestScanner_Reset(t *testing.T) {
	s := NewScanner()
	s.Scan(`<plan>one</plan>`)
	s.Reset()

	res := s.Scan(`<plan>one</plan>`)
	if len(res.Plans) != 1 {
		t.Errorf("post-reset scan Plans = %d, want 1", len(res.Plans))
	}
}
