// Package resilience provides backoff loops for remote calls.
//
// Two loops are provided:
//   - Poll: deadline-driven exponential backoff that repeats a successful
//     call until its result is ready
//   - Retry: attempt-count-driven retry of failed calls, used as an optional
//     transport layer
//
// Both suspend on a Clock, which yields the goroutine instead of blocking
// and returns early when the context is cancelled.
//
//	items, err := resilience.Poll(ctx, resilience.DefaultPollConfig(),
//	    func(ctx context.Context) ([]any, error) { return fetch(ctx) },
//	    func(items []any) bool { return len(items) == 0 },
//	)
package resilience
