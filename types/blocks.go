package types

// ArtifactType classifies an artifact block's content.
type ArtifactType string

// Artifact type constants, matching the doc tag's type attribute values.
const (
	ArtifactContract  ArtifactType = "contract"
	ArtifactClaim     ArtifactType = "claim"
	ArtifactComplaint ArtifactType = "complaint"
	ArtifactDocument  ArtifactType = "document"
	ArtifactCode      ArtifactType = "code"
	ArtifactAnalysis  ArtifactType = "analysis"
	ArtifactImage     ArtifactType = "image"
)

// ParseArtifactType maps a doc tag type attribute to an ArtifactType.
// Unknown values fall back to ArtifactDocument so a new server-side type
// degrades to a plain document instead of dropping the block.
func ParseArtifactType(s string) ArtifactType {
	switch ArtifactType(s) {
	case ArtifactContract, ArtifactClaim, ArtifactComplaint,
		ArtifactDocument, ArtifactCode, ArtifactAnalysis, ArtifactImage:
		return ArtifactType(s)
	default:
		return ArtifactDocument
	}
}

// Artifact is a titled, typed, versioned block of structured content
// surfaced from assistant output.
//
// Identity for reconciliation is Title (case-sensitive exact match) scoped
// to the current message: the tag grammar carries no server-assigned id.
// Version starts at 1 and increments each time an edit or a re-emitted
// block with the same title changes Content.
type Artifact struct {
	Type    ArtifactType `json:"type"`
	Title   string       `json:"title"`
	Content string       `json:"content"`
	Version int          `json:"version"`
}

// ArtifactBlock is a freshly extracted doc block, before reconciliation.
type ArtifactBlock struct {
	Type    ArtifactType
	Title   string
	Content string
}

// Replacement is a single literal search/replace pair within an edit block.
type Replacement struct {
	Old string
	New string
}

// EditInstruction is a tagged search/replace directive targeting a
// previously surfaced artifact by title. Ephemeral: applied immediately
// by the reconciler, never stored.
type EditInstruction struct {
	TargetTitle string
	// Replacements are applied in order as literal, non-overlapping
	// substring substitutions.
	Replacements []Replacement
}

// PlanBlock is an extracted plan block's inner text.
type PlanBlock struct {
	Content string
}

// TaskItem is one checklist line of a task block.
type TaskItem struct {
	Text string
	Done bool
}

// TaskBlock is an extracted task checklist.
type TaskBlock struct {
	Title string
	Items []TaskItem
}

// ClarifyQuestion is one question from a clarify block's JSON array.
type ClarifyQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}
