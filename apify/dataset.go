package apify

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/apifykit/httpclient"
	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/resilience"
	"github.com/kbukum/apifykit/validation"
)

const opGetDataset = "get_dataset"

// Dataset query defaults applied when a field is left nil.
const (
	DefaultDatasetLimit = 1000
)

// SortDirection orders dataset items by insertion.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// DatasetQuery selects items from a dataset. Nil pointers take the API
// defaults listed on each field; set them to send an explicit value.
type DatasetQuery struct {
	DatasetID string `json:"dataset_id" yaml:"dataset_id" validate:"required,apify_id"`
	// Clean skips hidden fields and empty items. Default true.
	Clean *bool `json:"clean,omitempty" yaml:"clean,omitempty"`
	// Offset is the number of items to skip. Default 0.
	Offset *int `json:"offset,omitempty" yaml:"offset,omitempty" validate:"omitempty,min=0"`
	// Limit is the maximum number of items. Default 1000.
	Limit *int `json:"limit,omitempty" yaml:"limit,omitempty" validate:"omitempty,min=1"`
	// Fields restricts items to these fields.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Omit removes these fields from items.
	Omit []string `json:"omit,omitempty" yaml:"omit,omitempty"`
	// Unwind expands these array or object fields into separate items.
	Unwind []string `json:"unwind,omitempty" yaml:"unwind,omitempty"`
	// Flatten flattens nested objects. Default false.
	Flatten *bool `json:"flatten,omitempty" yaml:"flatten,omitempty"`
	// Sort is ASC (default) or DESC.
	Sort SortDirection `json:"sort,omitempty" yaml:"sort,omitempty" validate:"omitempty,oneof=ASC DESC asc desc"`
	// SkipEmpty drops empty items. Default true.
	SkipEmpty *bool `json:"skip_empty,omitempty" yaml:"skip_empty,omitempty"`
	// SkipFailedPages drops items of failed pages. Default false.
	SkipFailedPages *bool `json:"skip_failed_pages,omitempty" yaml:"skip_failed_pages,omitempty"`
	// SkipHidden drops fields starting with '#'. Default false.
	SkipHidden *bool `json:"skip_hidden,omitempty" yaml:"skip_hidden,omitempty"`
	// Simplified applies the legacy simplified format. Default false.
	Simplified *bool `json:"simplified,omitempty" yaml:"simplified,omitempty"`
	// View selects a predefined dataset view.
	View string `json:"view,omitempty" yaml:"view,omitempty"`
	// Timeout overrides the polling deadline for this call.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
}

// Ptr returns a pointer to v, for optional query fields.
func Ptr[T any](v T) *T { return &v }

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Validate checks the query.
func (q DatasetQuery) Validate() error {
	return validation.Validate(q)
}

// Params returns the dataset query parameters with defaults applied.
func (q DatasetQuery) Params() httpclient.QueryParams {
	return httpclient.QueryParams{
		"cleanValue":      deref(q.Clean, true),
		"offset":          deref(q.Offset, 0),
		"limit":           deref(q.Limit, DefaultDatasetLimit),
		"sortDirection":   strings.EqualFold(string(q.Sort), string(SortDesc)),
		"flatten":         deref(q.Flatten, false),
		"skipEmpty":       deref(q.SkipEmpty, true),
		"skipFailedPages": deref(q.SkipFailedPages, false),
		"skipHidden":      deref(q.SkipHidden, false),
		"simplified":      deref(q.Simplified, false),
		"fields":          q.Fields,
		"omit":            q.Omit,
		"unwind":          q.Unwind,
	}.SetIf(q.View != "", "view", q.View)
}

// ItemsPath returns "/datasets/{id}/items" with the canonical query.
func (q DatasetQuery) ItemsPath() string {
	return httpclient.AppendQuery("/datasets/"+resourcePath(q.DatasetID)+"/items", q.Params())
}

// IsEmptyDataset reports whether a decoded dataset page has no items.
// It is the readiness predicate of GetDataset.
func IsEmptyDataset(items []any) bool {
	return len(items) == 0
}

// GetDataset fetches dataset items. An empty result is retried with
// exponential backoff until items arrive or the poll deadline passes, in
// which case a *resilience.PollTimeoutError is returned.
func (c *Connection) GetDataset(ctx context.Context, q DatasetQuery) ([]any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var items []any
	err := c.track(ctx, opGetDataset, q.DatasetID, func(ctx context.Context) error {
		pc := c.pollConfig(ctx, opGetDataset, q.Timeout, TimeoutMessage)
		pc.OnNotReady = c.logNotReady(ctx, msgEmptyDataset, q.DatasetID)

		var err error
		items, err = resilience.Poll(ctx, pc, func(ctx context.Context) ([]any, error) {
			req, err := c.client.Builder().Get(ctx, q.ItemsPath())
			if err != nil {
				return nil, err
			}
			return httpclient.Invoke[[]any](ctx, c.client, req)
		}, IsEmptyDataset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// logNotReady returns a poll hook that logs msg at debug level.
func (c *Connection) logNotReady(ctx context.Context, msg, resourceID string) func(resilience.PollState) {
	log := c.log.WithContext(ctx)
	return func(state resilience.PollState) {
		log.Debug(msg, logger.AttemptFields(resourceID, state.Attempts, state.Elapsed))
	}
}

// resourcePath turns "username/name" into the "username~name" form the
// API expects in paths.
func resourcePath(id string) string {
	return strings.Replace(id, "/", "~", 1)
}
