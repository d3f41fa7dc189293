package report_test

import (
	"errors"
	"sync"
	"testing"

	"quill/internal/report"
	"quill/internal/state"
)

func TestReportAggregatesCounters(t *testing.T) {
	r := report.New(false)
	r.AddContact()
	r.AddContact()
	r.AddProcessed(state.StageTotals{Transcriptions: 1, Tags: 3})
	r.AddProcessed(state.StageTotals{OCRRuns: 2, Tags: 1})
	r.AddSkipped()
	r.AddDropped()
	r.AddFailure("alice", "2026-01-04", errors.New("artifact write failed"))
	r.Finish()

	snap := r.Snapshot()
	if snap.ContactsSeen != 2 || snap.UnitsProcessed != 2 || snap.UnitsSkipped != 1 || snap.UnitsDropped != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Totals.Transcriptions != 1 || snap.Totals.OCRRuns != 2 || snap.Totals.Tags != 4 {
		t.Fatalf("totals = %+v", snap.Totals)
	}
	if snap.UnitsFailed != 1 || snap.Failures[0].Cause != "artifact write failed" {
		t.Fatalf("failures = %+v", snap.Failures)
	}
	if !r.HasFailures() {
		t.Fatal("HasFailures = false")
	}
	if snap.RunID == "" {
		t.Fatal("missing run id")
	}
}

func TestReportNoFailures(t *testing.T) {
	r := report.New(true)
	r.AddSkipped()
	if r.HasFailures() {
		t.Fatal("HasFailures = true")
	}
	if snap := r.Snapshot(); !snap.DryRun {
		t.Fatal("dry run flag lost")
	}
}

func TestReportConcurrentUpdates(t *testing.T) {
	r := report.New(false)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddProcessed(state.StageTotals{Tags: 1})
			r.AddSkipped()
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	if snap.UnitsProcessed != 50 || snap.UnitsSkipped != 50 || snap.Totals.Tags != 50 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
