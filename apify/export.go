package apify

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/kbukum/apifykit/httpclient"
	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/observability"
	"github.com/kbukum/apifykit/resilience"
	"github.com/kbukum/apifykit/storage"
	"github.com/kbukum/apifykit/validation"
)

const opSaveDataset = "save_dataset"

// DataSetFormat is the serialization of an exported dataset.
type DataSetFormat string

const (
	FormatJSON  DataSetFormat = "json"
	FormatJSONL DataSetFormat = "jsonl"
	FormatXML   DataSetFormat = "xml"
	FormatCSV   DataSetFormat = "csv"
	FormatXLSX  DataSetFormat = "xlsx"
	FormatRSS   DataSetFormat = "rss"
)

// Export defaults.
const (
	DefaultDelimiter = ","
	DefaultXMLRoot   = "items"
	DefaultXMLRow    = "item"
)

// emptyJSONArray is what an empty JSON export starts with.
var emptyJSONArray = []byte("[]")

// Extension returns the file extension for exports in this format.
func (f DataSetFormat) Extension() string {
	if f == "" {
		return string(FormatJSON)
	}
	if f == FormatRSS {
		return "xml"
	}
	return strings.ToLower(string(f))
}

// ExportOptions controls how a dataset is serialized for download.
type ExportOptions struct {
	// Format defaults to json.
	Format DataSetFormat `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=json jsonl xml csv xlsx rss JSON JSONL XML CSV XLSX RSS"`
	// Delimiter separates CSV columns. Defaults to ",".
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	// BOM forces or suppresses the UTF-8 byte order mark. Sent only when set.
	BOM *bool `json:"bom,omitempty" yaml:"bom,omitempty"`
	// XMLRoot names the XML root element. Defaults to "items".
	XMLRoot string `json:"xml_root,omitempty" yaml:"xml_root,omitempty"`
	// XMLRow names each XML item element. Defaults to "item".
	XMLRow string `json:"xml_row,omitempty" yaml:"xml_row,omitempty"`
	// SkipHeaderRow omits the CSV header. Defaults to false.
	SkipHeaderRow *bool `json:"skip_header_row,omitempty" yaml:"skip_header_row,omitempty"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// format returns the lower-case format, defaulting to json.
func (o ExportOptions) format() DataSetFormat {
	return DataSetFormat(strings.ToLower(orDefault(string(o.Format), string(FormatJSON))))
}

// Params returns the export query parameters with defaults applied.
func (o ExportOptions) Params() httpclient.QueryParams {
	return httpclient.QueryParams{
		"format":        string(o.format()),
		"delimiter":     orDefault(o.Delimiter, DefaultDelimiter),
		"bom":           o.BOM,
		"xmlRoot":       orDefault(o.XMLRoot, DefaultXMLRoot),
		"xmlRow":        orDefault(o.XMLRow, DefaultXMLRow),
		"skipHeaderRow": deref(o.SkipHeaderRow, false),
	}
}

// SaveDatasetInput selects dataset items and how to export them.
type SaveDatasetInput struct {
	DatasetQuery  `yaml:",inline" mapstructure:",squash"`
	ExportOptions `yaml:",inline" mapstructure:",squash"`
}

// Validate checks the input.
func (in SaveDatasetInput) Validate() error {
	return validation.Validate(in)
}

// ExportPath returns the items path with the query group followed by the
// export group. Each group is sorted on its own.
func (in SaveDatasetInput) ExportPath() string {
	return httpclient.AppendQuery(in.ItemsPath(), in.ExportOptions.Params())
}

// SaveDatasetOutput locates the stored export.
type SaveDatasetOutput struct {
	Path   string        `json:"path" yaml:"path"`
	URI    string        `json:"uri" yaml:"uri"`
	Format DataSetFormat `json:"format" yaml:"format"`
}

// DatasetSink stores exported datasets and reads them back for the
// readiness check.
type DatasetSink interface {
	Store(ctx context.Context, r io.Reader) (storage.Handle, error)
	Open(ctx context.Context, h storage.Handle) (io.ReadCloser, error)
}

type discarder interface {
	Discard(ctx context.Context, h storage.Handle) error
}

// StoredDatasetEmpty returns the readiness predicate of SaveDataset. An
// export is empty when its first two bytes are "[]". A stored object that
// cannot be read is logged and treated as ready.
func StoredDatasetEmpty(ctx context.Context, sink DatasetSink, log *logger.Logger) func(storage.Handle) bool {
	return func(h storage.Handle) bool {
		rc, err := sink.Open(ctx, h)
		if err != nil {
			observability.SetSpanError(ctx, err)
			log.Error("Failed to read stored dataset", logger.MergeWithError(logger.Fields("path", h.Path), err))
			return false
		}
		defer func() { _ = rc.Close() }()

		head := make([]byte, len(emptyJSONArray))
		n, err := io.ReadFull(rc, head)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			observability.SetSpanError(ctx, err)
			log.Error("Failed to read stored dataset", logger.MergeWithError(logger.Fields("path", h.Path), err))
			return false
		}
		return bytes.Equal(head[:n], emptyJSONArray)
	}
}

// SaveDataset streams a dataset export into sink without buffering it.
// An empty JSON export is retried like GetDataset; when sink can discard
// objects the empty export is deleted before the next attempt.
func (c *Connection) SaveDataset(ctx context.Context, in SaveDatasetInput, sink DatasetSink) (SaveDatasetOutput, error) {
	if err := in.Validate(); err != nil {
		return SaveDatasetOutput{}, err
	}
	format := in.ExportOptions.format()
	if s, ok := sink.(*storage.Sink); ok {
		sink = s.WithExtension(format.Extension())
	}

	var handle storage.Handle
	err := c.track(ctx, opSaveDataset, in.DatasetID, func(ctx context.Context) error {
		pc := c.pollConfig(ctx, opSaveDataset, in.Timeout, TimeoutMessage)
		pc.OnNotReady = c.logNotReady(ctx, msgEmptyDataset, in.DatasetID)

		empty := StoredDatasetEmpty(ctx, sink, c.log.WithContext(ctx))
		notReady := func(h storage.Handle) bool {
			if !empty(h) {
				return false
			}
			if d, ok := sink.(discarder); ok {
				if err := d.Discard(ctx, h); err != nil {
					c.log.WithContext(ctx).Warn("Failed to discard empty export", logger.MergeWithError(logger.Fields("path", h.Path), err))
				}
			}
			return true
		}

		var err error
		handle, err = resilience.Poll(ctx, pc, func(ctx context.Context) (storage.Handle, error) {
			req, err := c.client.Builder().Get(ctx, in.ExportPath())
			if err != nil {
				return storage.Handle{}, err
			}
			return httpclient.InvokeStreaming[storage.Handle](ctx, c.client, req, sink)
		}, notReady)
		return err
	})
	if err != nil {
		return SaveDatasetOutput{}, err
	}
	return SaveDatasetOutput{Path: handle.Path, URI: handle.URI, Format: format}, nil
}
