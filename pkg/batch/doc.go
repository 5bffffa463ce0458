// Package batch fetches a list of keys with bounded concurrency and returns
// one result per key in input order.
//
// It backs the detail fan-out of the hot list and search caches: every key is
// fetched independently, a failed key never cancels its siblings, and the
// caller decides whether to skip or substitute failed results.
//
// Example usage:
//
//	fetcher := batch.NewFetcher(batch.DefaultConfig(), logger)
//	results := batch.FetchAll(ctx, fetcher, "hot", ids, func(ctx context.Context, id int) (games.GameRecord, error) {
//		return svc.GetGameDetails(ctx, id)
//	})
//	for _, r := range results {
//		if r.Err != nil {
//			// substitute or skip
//		}
//	}
package batch
