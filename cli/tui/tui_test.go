package tui

import (
	"strings"
	"testing"

	"github.com/dictumlabs/dictum/cli/report"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		// Supported: inspect and stats views
		{"inspect_message", true},
		{"inspect_artifacts", true},
		{"stats_metrics", true},

		// Not supported: list and version
		{"list_messages", false},
		{"version", false},

		// Not supported: execution commands
		{"stream", false},
		{"replay", false},

		// Not supported: unknown
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := IsTUISupported(tt.viewType)
			if got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestSupportedTUIViews(t *testing.T) {
	views := SupportedTUIViews()

	if len(views) != 3 {
		t.Errorf("SupportedTUIViews() returned %d views, expected 3", len(views))
	}

	for _, v := range views {
		if !IsTUISupported(v) {
			t.Errorf("SupportedTUIViews() returned %q but IsTUISupported returns false", v)
		}
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	err := Run("list_messages", nil)
	if err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func TestInspectMessageView(t *testing.T) {
	data := &report.MessageReport{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		State:          "failed",
		Phase:          "answering",
		Text:           "Partial answer",
		ErrorMessage:   "model overloaded",
		EventCount:     9,
	}

	out := RenderInspectStatic("inspect_message", data)
	for _, want := range []string{"conv-1", "msg-1", "failed", "model overloaded", "Partial answer"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestInspectMessageView_WrongDataType(t *testing.T) {
	out := RenderInspectStatic("inspect_message", "not a report")
	if !strings.Contains(out, "Invalid data type") {
		t.Errorf("expected invalid data message, got %q", out)
	}
}

func TestStatsMetricsView(t *testing.T) {
	m := NewStatsModel("stats_metrics", &report.MetricsReport{
		ChunksReceived:    12,
		EventsDecoded:     40,
		ArtifactsSurfaced: 2,
	})

	out := m.View()
	for _, want := range []string{"Session Metrics", "12", "40", "Artifacts"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
