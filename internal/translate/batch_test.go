package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func numberedItems(n int) []TranslationItem {
	items := make([]TranslationItem, n)
	for i := range items {
		items[i] = TranslationItem{Index: i, Text: fmt.Sprintf("line %d", i)}
	}
	return items
}

func upper(_ context.Context, items []TranslationItem) ([]TranslationResult, error) {
	out := make([]TranslationResult, len(items))
	for i, it := range items {
		out[i] = TranslationResult{Index: it.Index, Text: "T:" + it.Text}
	}
	return out, nil
}

func TestRunBatchesKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	fn := func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
		mu.Lock()
		sizes = append(sizes, len(items))
		mu.Unlock()
		return upper(ctx, items)
	}

	results, err := runBatches(context.Background(), numberedItems(23), 5, 3, fn)
	if err != nil {
		t.Fatalf("runBatches: %v", err)
	}
	if len(results) != 23 {
		t.Fatalf("got %d results, want 23", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Text != fmt.Sprintf("T:line %d", i) {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if len(sizes) != 5 {
		t.Errorf("expected 5 batches, got %d", len(sizes))
	}
}

func TestRunBatchesStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	fn := func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
		calls.Add(1)
		if items[0].Index == 0 {
			return nil, boom
		}
		return upper(ctx, items)
	}

	_, err := runBatches(context.Background(), numberedItems(100), 10, 1, fn)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls.Load() >= 10 {
		t.Errorf("remaining batches should be cancelled, got %d calls", calls.Load())
	}
}

func TestRunBatchesEmpty(t *testing.T) {
	results, err := runBatches(context.Background(), nil, 10, 2, upper)
	if err != nil || len(results) != 0 {
		t.Errorf("got %v, %v", results, err)
	}
}

func TestRunSequential(t *testing.T) {
	results, err := runSequential(context.Background(), numberedItems(7), 3, upper)
	if err != nil {
		t.Fatalf("runSequential: %v", err)
	}
	if len(results) != 7 || results[6].Text != "T:line 6" {
		t.Errorf("unexpected results: %+v", results)
	}

	failing := func(context.Context, []TranslationItem) ([]TranslationResult, error) {
		return nil, errors.New("nope")
	}
	if _, err := runSequential(context.Background(), numberedItems(4), 2, failing); err == nil {
		t.Error("expected error")
	}
}

func TestSplitBatches(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 50, 0},
		{50, 50, 1},
		{51, 50, 2},
		{120, 50, 3},
	}
	for _, tt := range tests {
		if got := len(splitBatches(numberedItems(tt.n), tt.size)); got != tt.want {
			t.Errorf("splitBatches(%d, %d) = %d batches, want %d", tt.n, tt.size, got, tt.want)
		}
	}
	if batchSizeOr(0) != DefaultBatchSize || batchSizeOr(7) != 7 {
		t.Error("batchSizeOr fallback broken")
	}
}
