package aggregator

import (
	"sync"
	"testing"
)

func TestAddResult_ReturnsUniqueIDs(t *testing.T) {
	a := New()

	first := a.AddResult("t1", "w1", "output one", nil)
	second := a.AddResult("t1", "w1", "output two", nil)

	if first == "" || second == "" {
		t.Fatal("AddResult returned an empty ID")
	}
	if first == second {
		t.Errorf("result IDs collide: %s", first)
	}
}

func TestAggregateTask_SortedByTimestamp(t *testing.T) {
	a := New()
	a.AddResult("t1", "w1", "first", nil)
	a.AddResult("t1", "w2", "second", nil)
	a.AddResult("t2", "w1", "other task", nil)

	summary := a.AggregateTask("t1")

	if summary.TaskID != "t1" {
		t.Errorf("TaskID = %q, want t1", summary.TaskID)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(summary.Results))
	}
	if summary.Results[0].Output != "first" || summary.Results[1].Output != "second" {
		t.Errorf("results out of order: %v, %v", summary.Results[0].Output, summary.Results[1].Output)
	}
	for i := 1; i < len(summary.Results); i++ {
		if summary.Results[i].Timestamp.Before(summary.Results[i-1].Timestamp) {
			t.Error("results not sorted by timestamp")
		}
	}
}

func TestAggregateTask_NoResults(t *testing.T) {
	a := New()
	summary := a.AggregateTask("missing")

	if len(summary.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0", len(summary.Results))
	}
	if len(summary.WorkerIDs) != 0 {
		t.Errorf("WorkerIDs = %v, want empty", summary.WorkerIDs)
	}
}

func TestAggregateWorkflow(t *testing.T) {
	a := New()
	a.AddResult("t1", "w1", "r1", nil)
	a.AddResult("t2", "w2", "r2", nil)
	a.AddResult("t3", "w1", "r3", nil)

	summary := a.AggregateWorkflow([]string{"t1", "t2", "t3", "t4"})

	if summary.TotalResults != 3 {
		t.Errorf("TotalResults = %d, want 3", summary.TotalResults)
	}
	if len(summary.TaskSummaries) != 3 {
		t.Errorf("len(TaskSummaries) = %d, want 3 (t4 has no results)", len(summary.TaskSummaries))
	}
	if len(summary.WorkerIDs) != 2 {
		t.Errorf("WorkerIDs = %v, want 2 distinct workers", summary.WorkerIDs)
	}
}

func TestStats(t *testing.T) {
	a := New()
	a.AddResult("t1", "w1", nil, nil)
	a.AddResult("t1", "w1", nil, nil)
	a.AddResult("t2", "w2", nil, nil)

	stats := a.Stats()
	if stats.TotalResults != 3 {
		t.Errorf("TotalResults = %d, want 3", stats.TotalResults)
	}
	if stats.TasksWithResults != 2 {
		t.Errorf("TasksWithResults = %d, want 2", stats.TasksWithResults)
	}
}

func TestAddResult_ConcurrentAppendSafety(t *testing.T) {
	a := New()

	const workers = 8
	const each = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID string) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				a.AddResult("t1", workerID, i, nil)
			}
		}("w" + string(rune('0'+w)))
	}
	wg.Wait()

	summary := a.AggregateTask("t1")
	if len(summary.Results) != workers*each {
		t.Errorf("len(Results) = %d, want %d", len(summary.Results), workers*each)
	}
	if len(summary.WorkerIDs) != workers {
		t.Errorf("distinct workers = %d, want %d", len(summary.WorkerIDs), workers)
	}
}
