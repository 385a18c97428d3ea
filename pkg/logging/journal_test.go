package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestJournalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.jsonl")

	j, err := NewJournal(JournalConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	eb := NewEventBuffer(8)
	eb.AddCallback(j.HandleEvent)

	eb.Add(EditEvent{Op: "choose", Element: "0", Symbol: "stmt", Outcome: OutcomeOK})
	eb.Add(EditEvent{Op: "delete", Element: "0", Outcome: OutcomeRefused, Detail: "root"})
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []EditEvent{
		{Seq: 1, Op: "choose", Element: "0", Symbol: "stmt", Outcome: OutcomeOK},
		{Seq: 2, Op: "delete", Element: "0", Outcome: OutcomeRefused, Detail: "root"},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(EditEvent{}, "Time")); diff != "" {
		t.Errorf("journal (-want +got):\n%s", diff)
	}
	for _, ev := range got {
		if ev.Time.IsZero() {
			t.Errorf("event %d has no time", ev.Seq)
		}
	}
}

func TestJournalFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.jsonl")
	j, err := NewJournal(JournalConfig{Path: path, Filter: EventFilter{Outcome: OutcomeRefused}})
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	j.Write(EditEvent{Op: "choose", Outcome: OutcomeOK})
	j.Write(EditEvent{Op: "paste", Outcome: OutcomeRefused})

	got, err := ReadJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Op != "paste" {
		t.Errorf("journal = %+v", got)
	}
}

func TestJournalRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.jsonl")

	// Small maxSize to trigger rotation quickly
	j, err := NewJournal(JournalConfig{Path: path, MaxSize: 100, MaxFiles: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	for i := 0; i < 20; i++ {
		j.Write(EditEvent{Op: "navigate", Outcome: OutcomeOK, Detail: "rotation test"})
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated file .1: %v", err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("file .3 should have been removed, stat err = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= 100 {
		t.Errorf("current file should be small after rotation, got %d bytes", info.Size())
	}
}

func TestJournalClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.jsonl")
	j, err := NewJournal(JournalConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	j.Close()
	if err := j.Close(); err != nil {
		t.Errorf("second close should return nil, got %v", err)
	}
	if err := j.Write(EditEvent{Op: "choose"}); err == nil {
		t.Error("expected error writing to closed journal")
	}
}

func TestNewJournalNeedsPath(t *testing.T) {
	if _, err := NewJournal(JournalConfig{}); err == nil {
		t.Error("empty path should fail")
	}
}
