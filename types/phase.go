package types

// Phase is the assistant's currently-reported activity during a streaming
// response. PhaseNone means no activity has been observed yet for the
// in-flight response.
type Phase int

// Phase constants. Declaration order is NOT the precedence contract;
// the phase tracker owns an explicit precedence table.
const (
	PhaseNone Phase = iota
	PhaseThinking
	PhaseSearching
	PhaseUsingTool
	PhasePlanning
	PhaseAnswering
)

// phaseNames maps phases to their wire/display names.
var phaseNames = map[Phase]string{
	PhaseNone:      "none",
	PhaseThinking:  "thinking",
	PhaseSearching: "searching",
	PhaseUsingTool: "using_tool",
	PhasePlanning:  "planning",
	PhaseAnswering: "answering",
}

// String returns the wire/display name for the phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePhase maps a wire phase name (status event payload) to a Phase.
// Returns false for unrecognized names; the decoder surfaces those as
// decode errors rather than guessing.
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "thinking":
		return PhaseThinking, true
	case "searching":
		return PhaseSearching, true
	case "using_tool":
		return PhaseUsingTool, true
	case "planning":
		return PhasePlanning, true
	case "answering":
		return PhaseAnswering, true
	default:
		return PhaseNone, false
	}
}
