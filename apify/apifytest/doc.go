// Package apifytest runs an in-process fake of the Apify API for tests.
//
// The fake serves the endpoints used by package apify under /v2, records
// every request it receives and lets tests script responses: dataset pages
// that start empty and fill up later, run status sequences, last runs and
// forced failures.
//
//	srv := apifytest.New(t, apifytest.WithToken("secret"))
//	srv.SetDataset("ds1", nil, []any{map[string]any{"a": 1}})
//	conn, _ := apify.NewConnection(apify.Config{BaseURL: srv.URL(), Token: "secret"})
package apifytest
