package runlog

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, path string) []event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer file.Close()

	var events []event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad event line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning stream: %v", err)
	}
	return events
}

func TestEventWriterAppendsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlp_events.jsonl")

	w, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}
	if w.RunID() == "" {
		t.Error("empty run id")
	}
	if err := w.Scalar(0, "train_loss", 1.5); err != nil {
		t.Fatalf("Scalar: %v", err)
	}
	if err := w.Scalar(33, "train_accuracy", 0.25); err != nil {
		t.Fatalf("Scalar: %v", err)
	}
	if err := w.Scalar(40, "train_loss", math.NaN()); err != nil {
		t.Fatalf("Scalar with NaN: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// a second run appends to the same stream under its own id
	w2, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("NewEventWriter again: %v", err)
	}
	if err := w2.Scalar(0, "train_loss", 2.0); err != nil {
		t.Fatalf("Scalar: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := readEvents(t, path)
	if len(events) != 4 {
		t.Fatalf("events: got %d, want 4", len(events))
	}
	if events[0].Tag != "train_loss" || events[0].Step != 0 || events[0].Value == nil || *events[0].Value != 1.5 {
		t.Errorf("first event wrong: %+v", events[0])
	}
	if events[1].Step != 33 || events[1].Value == nil || *events[1].Value != 0.25 {
		t.Errorf("second event wrong: %+v", events[1])
	}
	if events[2].Value != nil {
		t.Errorf("NaN event value: got %v, want null", *events[2].Value)
	}
	if events[0].RunID != events[2].RunID {
		t.Error("events of one run must share a run id")
	}
	if events[0].RunID == events[3].RunID {
		t.Error("separate runs must not share a run id")
	}
	for i, e := range events {
		if e.WallTime <= 0 {
			t.Errorf("event %d has no wall time", i)
		}
	}
}

func TestEventWriterClosedBehavior(t *testing.T) {
	w, err := NewEventWriter(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: got %v, want nil", err)
	}
	if err := w.Scalar(0, "train_loss", 1); err == nil {
		t.Error("Scalar after Close must fail")
	}
}

func TestEventWriterCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "events.jsonl")
	w, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}
	if err := w.Scalar(1, "tag", 3.5); err != nil {
		t.Fatalf("Scalar: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stream file missing: %v", err)
	}
}
