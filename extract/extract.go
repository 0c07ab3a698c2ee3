// Package extract incrementally scans accumulating assistant text for
// embedded structured blocks.
//
// Five constructs are recognized:
//
//	<doc type="TYPE" title="TITLE">content</doc>
//	<edit target="TITLE"><replace><old>..</old><new>..</new></replace>...</edit>
//	<plan>content</plan>
//	<task title="TITLE">checklist lines</task>
//	<clarify>JSON array of questions</clarify>
//
// The scanner is incremental and idempotent: each call receives the full
// accumulated text so far and returns only the blocks whose closing tag
// became visible since the previous call. A block is attempted at most
// once after it closes; malformed inner content yields no extraction for
// that block without failing the pass. Each kind keeps its own scan
// offset, so an unclosed block of one kind never blocks extraction of a
// different, already-closed kind elsewhere in the text, and the total
// work stays roughly linear in stream length instead of re-matching the
// whole text each call.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/dictumlabs/dictum/types"
)

// blockKind indexes the per-kind scan state.
type blockKind int

const (
	kindDoc blockKind = iota
	kindEdit
	kindPlan
	kindTask
	kindClarify
	kindCount
)

// grammar holds the delimiter pair for one block kind.
type grammar struct {
	open  *regexp.Regexp
	close string
}

var grammars = [kindCount]grammar{
	kindDoc:     {open: regexp.MustCompile(`<doc\b[^>]*>`), close: "</doc>"},
	kindEdit:    {open: regexp.MustCompile(`<edit\b[^>]*>`), close: "</edit>"},
	kindPlan:    {open: regexp.MustCompile(`<plan>`), close: "</plan>"},
	kindTask:    {open: regexp.MustCompile(`<task\b[^>]*>`), close: "</task>"},
	kindClarify: {open: regexp.MustCompile(`<clarify>`), close: "</clarify>"},
}

var (
	attrPattern     = regexp.MustCompile(`([a-z]+)="([^"]*)"`)
	replacePattern  = regexp.MustCompile(`(?s)<replace>\s*<old>(.*?)</old>\s*<new>(.*?)</new>\s*</replace>`)
	taskLinePattern = regexp.MustCompile(`^(?:-\s*)?\[([ xX])\]\s*(.*)$`)
)

// Result is the set of blocks newly completed by one scan.
type Result struct {
	Artifacts      []types.ArtifactBlock
	Edits          []types.EditInstruction
	Plans          []types.PlanBlock
	Tasks          []types.TaskBlock
	Clarifications []types.ClarifyQuestion
	// Malformed counts closed blocks whose inner content failed to parse.
	// Those blocks are consumed and never retried.
	Malformed int
}

// Empty returns true when the scan produced nothing, malformed included.
func (r *Result) Empty() bool {
	return len(r.Artifacts) == 0 && len(r.Edits) == 0 && len(r.Plans) == 0 &&
		len(r.Tasks) == 0 && len(r.Clarifications) == 0 && r.Malformed == 0
}

// Scanner extracts structured blocks from one message's accumulating text.
// Not safe for concurrent use; owned by the session controller.
type Scanner struct {
	// offsets[k] is the text index from which kind k resumes scanning.
	// It sits at the start of an observed-but-unclosed opening tag, or
	// past the last consumed closing tag.
	offsets [kindCount]int
}

// NewScanner creates a scanner positioned at the start of the text.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan processes the full accumulated text and returns blocks completed
// since the previous call. Calling Scan twice with the same text yields
// an empty second result.
func (s *Scanner) Scan(text string) Result {
	var res Result
	for k := blockKind(0); k < kindCount; k++ {
		s.scanKind(k, text, &res)
	}
	return res
}

// Reset rewinds all scan offsets. Used when a scanner is reused for a new
// message, which starts from empty text.
func (s *Scanner) Reset() {
	s.offsets = [kindCount]int{}
}

// scanKind advances one kind's offset through text, consuming every block
// of that kind whose closing delimiter is visible.
func (s *Scanner) scanKind(k blockKind, text string, res *Result) {
	g := grammars[k]
	for {
		off := s.offsets[k]
		if off >= len(text) {
			return
		}

		loc := g.open.FindStringIndex(text[off:])
		if loc == nil {
			// No complete opening tag. Hold at a trailing partial tag so
			// an opening tag split across chunk boundaries is still found
			// once the rest of it arrives; otherwise skip the scanned text.
			if i := strings.LastIndexByte(text[off:], '<'); i >= 0 && !strings.ContainsRune(text[off+i:], '>') {
				s.offsets[k] = off + i
			} else {
				s.offsets[k] = len(text)
			}
			return
		}
		openStart := off + loc[0]
		innerStart := off + loc[1]

		closeRel := strings.Index(text[innerStart:], g.close)
		if closeRel < 0 {
			// Block not closed yet: hold position and wait for more text.
			s.offsets[k] = openStart
			return
		}
		inner := text[innerStart : innerStart+closeRel]
		openTag := text[openStart:innerStart]

		// Consume the block whether or not it parses; a closed block is
		// attempted exactly once.
		s.offsets[k] = innerStart + closeRel + len(g.close)

		if !parseBlock(k, openTag, inner, res) {
			res.Malformed++
		}
	}
}

// parseBlock parses one closed block's tag attributes and inner content.
// Returns false when the block is malformed.
func parseBlock(k blockKind, openTag, inner string, res *Result) bool {
	switch k {
	case kindDoc:
		attrs := parseAttrs(openTag)
		title := strings.TrimSpace(attrs["title"])
		if title == "" {
			return false
		}
		res.Artifacts = append(res.Artifacts, types.ArtifactBlock{
			Type:    types.ParseArtifactType(attrs["type"]),
			Title:   title,
			Content: strings.TrimSpace(inner),
		})
		return true

	case kindEdit:
		attrs := parseAttrs(openTag)
		target := strings.TrimSpace(attrs["target"])
		if target == "" {
			return false
		}
		pairs := replacePattern.FindAllStringSubmatch(inner, -1)
		if len(pairs) == 0 {
			return false
		}
		instr := types.EditInstruction{TargetTitle: target}
		for _, p := range pairs {
			instr.Replacements = append(instr.Replacements, types.Replacement{Old: p[1], New: p[2]})
		}
		res.Edits = append(res.Edits, instr)
		return true

	case kindPlan:
		res.Plans = append(res.Plans, types.PlanBlock{Content: strings.TrimSpace(inner)})
		return true

	case kindTask:
		attrs := parseAttrs(openTag)
		title := strings.TrimSpace(attrs["title"])
		if title == "" {
			return false
		}
		res.Tasks = append(res.Tasks, types.TaskBlock{
			Title: title,
			Items: parseChecklist(inner),
		})
		return true

	case kindClarify:
		var questions []types.ClarifyQuestion
		if err := json.Unmarshal([]byte(inner), &questions); err != nil {
			return false
		}
		res.Clarifications = append(res.Clarifications, questions...)
		return true

	default:
		return false
	}
}

// parseAttrs extracts key="value" attributes from an opening tag.
func parseAttrs(openTag string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(openTag, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// parseChecklist parses checklist lines. Lines without a checkbox marker
// are ignored.
func parseChecklist(inner string) []types.TaskItem {
	var items []types.TaskItem
	for _, line := range strings.Split(inner, "\n") {
		m := taskLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		items = append(items, types.TaskItem{
			Text: strings.TrimSpace(m[2]),
			Done: m[1] == "x" || m[1] == "X",
		})
	}
	return items
}
