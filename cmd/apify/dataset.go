package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/apifykit/apify"
	"github.com/kbukum/apifykit/storage"
)

// datasetFlags maps command-line flags onto a DatasetQuery. Optional
// values are only set when the flag was given so API defaults apply.
type datasetFlags struct {
	datasetID       string
	clean           bool
	offset          int
	limit           int
	fields          []string
	omit            []string
	unwind          []string
	flatten         bool
	desc            bool
	skipEmpty       bool
	skipFailedPages bool
	skipHidden      bool
	simplified      bool
	view            string
	pollTimeout     time.Duration
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.datasetID, "dataset", "", "Dataset ID or username~name")
	fl.BoolVar(&f.clean, "clean", true, "Skip hidden fields and empty items")
	fl.IntVar(&f.offset, "offset", 0, "Number of items to skip")
	fl.IntVar(&f.limit, "limit", apify.DefaultDatasetLimit, "Maximum number of items")
	fl.StringSliceVar(&f.fields, "fields", nil, "Only include these fields")
	fl.StringSliceVar(&f.omit, "omit", nil, "Exclude these fields")
	fl.StringSliceVar(&f.unwind, "unwind", nil, "Expand these fields into separate items")
	fl.BoolVar(&f.flatten, "flatten", false, "Flatten nested objects")
	fl.BoolVar(&f.desc, "desc", false, "Return newest items first")
	fl.BoolVar(&f.skipEmpty, "skip-empty", true, "Skip empty items")
	fl.BoolVar(&f.skipFailedPages, "skip-failed-pages", false, "Skip items of failed pages")
	fl.BoolVar(&f.skipHidden, "skip-hidden", false, "Skip fields starting with #")
	fl.BoolVar(&f.simplified, "simplified", false, "Use the legacy simplified format")
	fl.StringVar(&f.view, "view", "", "Predefined dataset view")
	fl.DurationVar(&f.pollTimeout, "poll-timeout", 0, "How long to wait for items (default: apify.poll.timeout)")
}

func (f *datasetFlags) query(cmd *cobra.Command) apify.DatasetQuery {
	q := apify.DatasetQuery{
		DatasetID: f.datasetID,
		Fields:    f.fields,
		Omit:      f.omit,
		Unwind:    f.unwind,
		View:      f.view,
		Timeout:   f.pollTimeout,
	}
	if f.desc {
		q.Sort = apify.SortDesc
	}
	changed := cmd.Flags().Changed
	setBool := func(name string, v bool, dst **bool) {
		if changed(name) {
			*dst = apify.Ptr(v)
		}
	}
	setBool("clean", f.clean, &q.Clean)
	setBool("flatten", f.flatten, &q.Flatten)
	setBool("skip-empty", f.skipEmpty, &q.SkipEmpty)
	setBool("skip-failed-pages", f.skipFailedPages, &q.SkipFailedPages)
	setBool("skip-hidden", f.skipHidden, &q.SkipHidden)
	setBool("simplified", f.simplified, &q.Simplified)
	if changed("offset") {
		q.Offset = apify.Ptr(f.offset)
	}
	if changed("limit") {
		q.Limit = apify.Ptr(f.limit)
	}
	return q
}

func newDatasetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Fetch dataset items",
	}
	cmd.AddCommand(newDatasetGetCommand(a), newDatasetSaveCommand(a))
	return cmd
}

func newDatasetGetCommand(a *app) *cobra.Command {
	var f datasetFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print dataset items, waiting while the dataset is empty",
		Example: `  apify dataset get --dataset abc123 --limit 10 --fields title,url
  apify dataset get --dataset abc123 --poll-timeout 2m -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.connection()
			if err != nil {
				return err
			}
			items, err := conn.GetDataset(cmd.Context(), f.query(cmd))
			if err != nil {
				return err
			}
			return a.print(items)
		},
	}
	f.register(cmd)
	return cmd
}

func newDatasetSaveCommand(a *app) *cobra.Command {
	var f datasetFlags
	var export apify.ExportOptions
	var bom, skipHeader bool
	var format string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Export a dataset into the configured storage",
		Long: `Stream a dataset export into storage without buffering it in memory.
The backend is chosen by storage.provider (local, s3 or memory); the
command prints the path and URI of the stored object.`,
		Example: `  apify dataset save --dataset abc123 --format csv --delimiter ';'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			export.Format = apify.DataSetFormat(strings.ToLower(format))
			if cmd.Flags().Changed("bom") {
				export.BOM = apify.Ptr(bom)
			}
			if cmd.Flags().Changed("skip-header-row") {
				export.SkipHeaderRow = apify.Ptr(skipHeader)
			}

			store, err := storage.New(a.cfg.Storage, nil, nil)
			if err != nil {
				return err
			}
			conn, err := a.connection()
			if err != nil {
				return err
			}
			out, err := conn.SaveDataset(cmd.Context(), apify.SaveDatasetInput{
				DatasetQuery:  f.query(cmd),
				ExportOptions: export,
			}, storage.NewSink(store, a.cfg.Storage.Prefix))
			if err != nil {
				return err
			}
			return a.print(out)
		},
	}
	f.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&format, "format", string(apify.FormatJSON), "Export format: json, jsonl, xml, csv, xlsx or rss")
	fl.StringVar(&export.Delimiter, "delimiter", apify.DefaultDelimiter, "CSV delimiter")
	fl.BoolVar(&bom, "bom", false, "Force (true) or suppress (false) the UTF-8 BOM")
	fl.StringVar(&export.XMLRoot, "xml-root", apify.DefaultXMLRoot, "XML root element")
	fl.StringVar(&export.XMLRow, "xml-row", apify.DefaultXMLRow, "XML item element")
	fl.BoolVar(&skipHeader, "skip-header-row", false, "Omit the CSV header row")
	return cmd
}
