package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/dictumlabs/dictum/metrics"
	"github.com/dictumlabs/dictum/types"
)

func newMemoryArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := New(Config{Day: "2026-08-29"}, lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func sampleResult(conversationID, messageID string) *types.SessionResult {
	return &types.SessionResult{
		Meta:  types.SessionMeta{ConversationID: conversationID, MessageID: messageID},
		State: types.StateCompleted,
		Phase: types.PhaseAnswering,
		Text:  "Final answer text.",
		Artifacts: []types.Artifact{
			{Type: types.ArtifactContract, Title: "NDA", Content: "Clause.", Version: 2},
		},
		EventCount:     7,
		DurationMillis: 120,
	}
}

func TestWriteAndQueryMessage(t *testing.T) {
	a := newMemoryArchive(t)
	ctx := context.Background()

	if err := a.WriteResult(ctx, sampleResult("conv-1", "msg-1")); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	record, err := a.QueryLatestMessage(ctx, "conv-1", "msg-1")
	if err != nil {
		t.Fatalf("QueryLatestMessage: %v", err)
	}
	if record["state"] != "completed" {
		t.Errorf("state = %v", record["state"])
	}
	if record["text"] != "Final answer text." {
		t.Errorf("text = %v", record["text"])
	}
	if toInt64(record["event_count"]) != 7 {
		t.Errorf("event_count = %v", record["event_count"])
	}
}

func TestQueryLatestPicksNewest(t *testing.T) {
	a := newMemoryArchive(t)
	ctx := context.Background()

	first := sampleResult("conv-1", "msg-1")
	first.Text = "first"
	second := sampleResult("conv-1", "msg-2")
	second.Text = "second"

	if err := a.WriteResult(ctx, first); err != nil {
		t.Fatalf("WriteResult first: %v", err)
	}
	if err := a.WriteResult(ctx, second); err != nil {
		t.Fatalf("WriteResult second: %v", err)
	}

	record, err := a.QueryLatestMessage(ctx, "conv-1", "")
	if err != nil {
		t.Fatalf("QueryLatestMessage: %v", err)
	}
	if record["text"] != "second" {
		t.Errorf("text = %v, want latest message", record["text"])
	}

	// Filtering by message_id still reaches the older record.
	record, err = a.QueryLatestMessage(ctx, "conv-1", "msg-1")
	if err != nil {
		t.Fatalf("QueryLatestMessage filtered: %v", err)
	}
	if record["text"] != "first" {
		t.Errorf("text = %v, want filtered message", record["text"])
	}
}

func TestQueryMessageNotFound(t *testing.T) {
	a := newMemoryArchive(t)

	_, err := a.QueryLatestMessage(context.Background(), "conv-missing", "")
	if !errors.Is(err, ErrNoMessageFound) {
		t.Fatalf("err = %v, want ErrNoMessageFound", err)
	}
}

func TestQueryArtifacts(t *testing.T) {
	a := newMemoryArchive(t)
	ctx := context.Background()

	res := sampleResult("conv-1", "msg-1")
	res.Artifacts = append(res.Artifacts, types.Artifact{
		Type: types.ArtifactAnalysis, Title: "Risk memo", Content: "Memo.", Version: 1,
	})
	if err := a.WriteResult(ctx, res); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	arts, err := a.QueryArtifacts(ctx, "conv-1", "msg-1")
	if err != nil {
		t.Fatalf("QueryArtifacts: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("got %d artifact records, want 2", len(arts))
	}
	if arts[0]["title"] != "NDA" || arts[1]["title"] != "Risk memo" {
		t.Errorf("titles = %v, %v (want write order)", arts[0]["title"], arts[1]["title"])
	}
	if toInt64(arts[0]["version"]) != 2 {
		t.Errorf("version = %v", arts[0]["version"])
	}
}

func TestListMessages(t *testing.T) {
	a := newMemoryArchive(t)
	ctx := context.Background()

	if err := a.WriteResult(ctx, sampleResult("conv-1", "msg-1")); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if err := a.WriteResult(ctx, sampleResult("conv-2", "msg-2")); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	all, err := a.ListMessages(ctx, "")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d summaries, want 2", len(all))
	}

	one, err := a.ListMessages(ctx, "conv-2")
	if err != nil {
		t.Fatalf("ListMessages filtered: %v", err)
	}
	if len(one) != 1 || one[0].MessageID != "msg-2" {
		t.Errorf("filtered summaries = %+v", one)
	}
	if one[0].ArtifactCount != 1 {
		t.Errorf("ArtifactCount = %d", one[0].ArtifactCount)
	}
}

func TestWriteAndQueryMetrics(t *testing.T) {
	a := newMemoryArchive(t)
	ctx := context.Background()

	c := metrics.NewCollector("conv-1", "msg-1")
	c.AddChunk(100)
	c.IncEventDecoded("content")
	c.IncDecodeError()

	if err := a.WriteMetrics(ctx, c.Snapshot()); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}

	record, err := a.QueryLatestMetrics(ctx, "conv-1", "msg-1")
	if err != nil {
		t.Fatalf("QueryLatestMetrics: %v", err)
	}
	if toInt64(record["bytes_received"]) != 100 {
		t.Errorf("bytes_received = %v", record["bytes_received"])
	}
	if toInt64(record["decode_errors"]) != 1 {
		t.Errorf("decode_errors = %v", record["decode_errors"])
	}

	if _, err := a.QueryLatestMetrics(ctx, "conv-other", ""); !errors.Is(err, ErrNoMetricsFound) {
		t.Errorf("err = %v, want ErrNoMetricsFound", err)
	}
}

func TestStorageErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"not found", errors.New("NoSuchKey: the key does not exist"), ErrNotFound},
		{"throttled", errors.New("SlowDown: please reduce request rate"), ErrThrottled},
		{"auth", errors.New("ExpiredToken: the provided token has expired"), ErrAuth},
		{"network", errors.New("dial tcp 10.0.0.1:443: connection refused"), ErrNetwork},
		{"disk full", errors.New("write /data: no space left on device"), ErrDiskFull},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := WrapWriteError(tc.err, "dictum")
			if !errors.Is(wrapped, tc.want) {
				t.Errorf("WrapWriteError(%v) = %v, want Is(%v)", tc.err, wrapped, tc.want)
			}
			var se *StorageError
			if !errors.As(wrapped, &se) {
				t.Fatalf("not a StorageError: %v", wrapped)
			}
			if se.Op != "write" {
				t.Errorf("Op = %q", se.Op)
			}
		})
	}

	if WrapReadError(nil, "x") != nil {
		t.Error("WrapReadError(nil) != nil")
	}
}
