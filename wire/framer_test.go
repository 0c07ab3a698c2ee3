package wire

import (
	"reflect"
	"testing"
)

// collect pushes fragments through a framer and gathers all records,
// including the final flush record.
func collect(t *testing.T, fragments []string) []string {
	t.Helper()

	f := NewFramer()
	var records []string
	for _, frag := range fragments {
		records = append(records, f.Push(frag)...)
	}
	if tail, ok := f.Flush(); ok {
		records = append(records, tail)
	}
	return records
}

func TestFramer_SingleCompleteRecord(t *testing.T) {
	f := NewFramer()
	records := f.Push("{\"t\":\"c\",\"v\":\"hi\"}\n")
	want := []string{"{\"t\":\"c\",\"v\":\"hi\"}"}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %v, want %v", records, want)
	}
}

func TestFramer_FragmentSplitMidRecord(t *testing.T) {
	f := NewFramer()

	if got := f.Push("{\"t\":\"c\","); got != nil {
		t.Fatalf("partial fragment completed records: %v", got)
	}
	records := f.Push("\"v\":\"hi\"}\n")
	want := []string{"{\"t\":\"c\",\"v\":\"hi\"}"}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %v, want %v", records, want)
	}
}

func TestFramer_MultipleRecordsInOneFragment(t *testing.T) {
	f := NewFramer()
	records := f.Push("one\ntwo\nthree\npartial")
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %v, want %v", records, want)
	}

	tail, ok := f.Flush()
	if !ok || tail != "partial" {
		t.Fatalf("Flush() = (%q, %v), want (\"partial\", true)", tail, ok)
	}
}

func TestFramer_EmptyFragment(t *testing.T) {
	f := NewFramer()
	if got := f.Push(""); got != nil {
		t.Fatalf("empty fragment completed records: %v", got)
	}
}

func TestFramer_CRLFStripped(t *testing.T) {
	records := collect(t, []string{"alpha\r\nbeta\r"})
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %v, want %v", records, want)
	}
}

func TestFramer_FlushEmptyBuffer(t *testing.T) {
	f := NewFramer()
	f.Push("done\n")
	if tail, ok := f.Flush(); ok {
		t.Fatalf("Flush() on empty buffer returned %q", tail)
	}
}

func TestFramer_Reset(t *testing.T) {
	f := NewFramer()
	f.Push("stale partial")
	f.Reset()
	if tail, ok := f.Flush(); ok {
		t.Fatalf("buffer survived Reset: %q", tail)
	}
}

// TestFramer_SplitInvariance verifies that the record sequence is identical
// for every possible chunk split of the same underlying stream.
func TestFramer_SplitInvariance(t *testing.T) {
	stream := "{\"t\":\"s\",\"v\":\"searching\"}\n{\"t\":\"c\",\"v\":\"Hello \\n world\"}\n\n{\"t\":\"e\",\"v\":{\"message\":\"x\"}}"

	want := collect(t, []string{stream})

	for i := 0; i <= len(stream); i++ {
		got := collect(t, []string{stream[:i], stream[i:]})
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: records = %v, want %v", i, got, want)
		}
	}

	// Three-way splits over a coarser grid.
	for i := 0; i <= len(stream); i += 3 {
		for j := i; j <= len(stream); j += 3 {
			got := collect(t, []string{stream[:i], stream[i:j], stream[j:]})
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("split at (%d,%d): records = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestFramer_NoDuplicateEmission(t *testing.T) {
	f := NewFramer()
	first := f.Push("a\nb")
	second := f.Push("\n")

	total := append(append([]string{}, first...), second...)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(total, want) {
		t.Fatalf("records = %v, want %v", total, want)
	}
}
