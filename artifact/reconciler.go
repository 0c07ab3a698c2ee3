// Package artifact reconciles extracted artifact blocks against the
// artifacts already surfaced in the current message.
//
// Identity is the block title: the tag grammar carries no server-assigned
// id, so a re-emitted block whose title matches an existing artifact is an
// update (last-write-wins), not a new artifact. Two genuinely distinct
// artifacts sharing a title within one message cannot be disambiguated;
// that is an accepted limitation of the grammar.
package artifact

import (
	"fmt"
	"strings"

	"github.com/dictumlabs/dictum/types"
)

// Reconciler owns one message's surfaced artifact list.
// Not safe for concurrent use; owned by the session controller.
type Reconciler struct {
	artifacts []types.Artifact
	// index maps title to position in artifacts. Rebuilt never: titles are
	// append-only and positions are stable (first-seen render order).
	index map[string]int
	// warnings records non-fatal reconciliation issues, e.g. an edit
	// targeting a title that has not been surfaced.
	warnings []string
	updates  int
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{index: make(map[string]int)}
}

// ApplyOutcome classifies what Apply did with a block.
type ApplyOutcome int

const (
	// Unchanged means the block matched an existing artifact with
	// identical content; nothing moved.
	Unchanged ApplyOutcome = iota
	// Surfaced means the block appeared as a new artifact.
	Surfaced
	// Updated means an existing artifact's content was replaced.
	Updated
)

// Apply reconciles one extracted block.
//
// On a title match the existing artifact's content is replaced and its
// version incremented, preserving list position. Otherwise the block is
// appended as a new artifact at version 1. Re-emitting identical content
// is a no-op: the version only moves when the content changes.
func (r *Reconciler) Apply(block types.ArtifactBlock) ApplyOutcome {
	if i, ok := r.index[block.Title]; ok {
		existing := &r.artifacts[i]
		if existing.Content == block.Content {
			return Unchanged
		}
		existing.Content = block.Content
		existing.Type = block.Type
		existing.Version++
		r.updates++
		return Updated
	}

	r.index[block.Title] = len(r.artifacts)
	r.artifacts = append(r.artifacts, types.Artifact{
		Type:    block.Type,
		Title:   block.Title,
		Content: block.Content,
		Version: 1,
	})
	return Surfaced
}

// ApplyEdit applies an edit instruction against the matching artifact.
//
// Each replacement is a literal, non-overlapping substring substitution,
// applied in the order given. A successful application increments the
// version exactly once regardless of how many replacements it contains.
//
// An unknown target title is a no-op recorded as a soft warning: the
// instruction may reference an artifact whose block has not closed yet.
// Returns true when the edit was applied.
func (r *Reconciler) ApplyEdit(instr types.EditInstruction) bool {
	i, ok := r.index[instr.TargetTitle]
	if !ok {
		r.warnings = append(r.warnings,
			fmt.Sprintf("edit targets unknown artifact %q", instr.TargetTitle))
		return false
	}

	target := &r.artifacts[i]
	content := target.Content
	for _, rep := range instr.Replacements {
		content = strings.ReplaceAll(content, rep.Old, rep.New)
	}
	if content == target.Content {
		return true
	}
	target.Content = content
	target.Version++
	r.updates++
	return true
}

// Artifacts returns a copy of the surfaced artifacts in first-seen order.
func (r *Reconciler) Artifacts() []types.Artifact {
	out := make([]types.Artifact, len(r.artifacts))
	copy(out, r.artifacts)
	return out
}

// Warnings returns a copy of the accumulated soft warnings.
func (r *Reconciler) Warnings() []string {
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Updates returns the number of content-changing updates (edits and
// re-emitted blocks), excluding first appearances.
func (r *Reconciler) Updates() int {
	return r.updates
}
