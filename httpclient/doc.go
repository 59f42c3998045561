// Package httpclient builds and executes authenticated JSON requests.
//
// The package is split into a pure construction step and an execution step:
//
//   - QueryParams / EncodeQuery: canonical, sorted query encoding
//   - RequestBuilder: base URL resolution, bearer token and content type
//   - Client: execution with spans, optional transport retry and typed errors
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.apify.com/v2",
//	}, httpclient.WithTokenSource(httpclient.EnvToken("APIFY_TOKEN")))
//
//	req, err := client.Builder().Get(ctx, "/acts/my-actor/runs/last")
//	run, err := httpclient.Invoke[map[string]any](ctx, client, req)
//
// # Streaming
//
// InvokeStreaming forwards a 200 body into a Sink without buffering it and
// returns whatever handle the sink produces:
//
//	h, err := httpclient.InvokeStreaming[storage.Handle](ctx, client, req, sink)
package httpclient
