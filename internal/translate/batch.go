package translate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 50

type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

func batchSizeOr(size int) int {
	if size > 0 {
		return size
	}
	return DefaultBatchSize
}

func splitBatches(items []TranslationItem, batchSize int) [][]TranslationItem {
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}

// runSequential sends one batch at a time.
func runSequential(
	ctx context.Context,
	items []TranslationItem,
	batchSize int,
	fn batchFunc,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	var allResults []TranslationResult
	for i, batch := range splitBatches(items, batchSize) {
		results, err := fn(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		allResults = append(allResults, results...)
	}

	sortResults(allResults)
	return allResults, nil
}

// runBatches sends up to concurrency batches at once. Results come back in
// index order and the first failing batch cancels the others.
func runBatches(
	ctx context.Context,
	items []TranslationItem,
	batchSize int,
	concurrency int,
	fn batchFunc,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	batches := splitBatches(items, batchSize)
	if len(batches) == 1 {
		return fn(ctx, batches[0])
	}

	perBatch := make([][]TranslationResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, batch := range batches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := fn(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			perBatch[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("translation cancelled: %w", err)
	}

	all := make([]TranslationResult, 0, len(items))
	for _, results := range perBatch {
		all = append(all, results...)
	}
	sortResults(all)
	return all, nil
}

func sortResults(results []TranslationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}
