// Package apify is a client for the Apify API v2.
//
// A Connection starts actor runs, looks up and waits for runs, fetches
// dataset items and streams dataset exports into storage. Every request
// carries a bearer token, the integration platform header and a canonical,
// sorted query string.
//
// Datasets are often still empty right after a run finishes. GetDataset
// and SaveDataset therefore poll with exponential backoff (2s, 4s, ...
// capped at 32s) until items arrive or the deadline passes:
//
//	conn, err := apify.NewConnection(apify.Config{Token: token})
//	if err != nil {
//		return err
//	}
//	items, err := conn.GetDataset(ctx, apify.DatasetQuery{DatasetID: run.DefaultDatasetID})
//	if errors.Is(err, resilience.ErrPollTimeout) {
//		// still empty after Config.Poll.Timeout
//	}
//
// Errors are *httpclient.Error values classified by status, validation
// errors are *errors.AppError, and AsAppError converts any of them into an
// AppError that keeps the API's own error type and message.
package apify
