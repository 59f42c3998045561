package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/apifykit/apify"
	"github.com/kbukum/apifykit/errors"
)

type runActorFlags struct {
	actorID           string
	inputFile         string
	timeout           float64
	memory            int
	maxItems          int
	maxTotalChargeUsd float64
	build             string
	waitForFinish     float64
	webhooks          string
	wait              bool
	pollTimeout       time.Duration
}

func newRunActorCommand(a *app) *cobra.Command {
	var f runActorFlags
	cmd := &cobra.Command{
		Use:   "run-actor",
		Short: "Start an actor run",
		Long: `Start a run of an actor and print it. With --wait the command polls the
run until it reaches a terminal status.`,
		Example: `  apify run-actor --actor apify~web-scraper --input input.json --memory 1024 --wait`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input(cmd)
			if err != nil {
				return err
			}
			conn, err := a.connection()
			if err != nil {
				return err
			}
			run, err := conn.RunActor(cmd.Context(), in)
			if err != nil {
				return err
			}
			if f.wait && !run.Status.IsTerminal() {
				run, err = conn.WaitForRun(cmd.Context(), apify.WaitForRunInput{RunID: run.ID, Timeout: f.pollTimeout})
				if err != nil {
					return err
				}
			}
			return a.print(run)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.actorID, "actor", "", "Actor ID or username~name")
	fl.StringVar(&f.inputFile, "input", "", "JSON file with the actor input, - for stdin")
	fl.Float64Var(&f.timeout, "timeout", 0, "Run timeout in seconds")
	fl.IntVar(&f.memory, "memory", 0, "Run memory in megabytes")
	fl.IntVar(&f.maxItems, "max-items", 0, "Maximum number of charged result items")
	fl.Float64Var(&f.maxTotalChargeUsd, "max-total-charge-usd", 0, "Maximum cost of the run in USD")
	fl.StringVar(&f.build, "build", "", "Build tag or number")
	fl.Float64Var(&f.waitForFinish, "wait-for-finish", 0, "Seconds the API holds the response (max 60)")
	fl.StringVar(&f.webhooks, "webhooks", "", "Base64-encoded ad-hoc webhooks")
	fl.BoolVar(&f.wait, "wait", false, "Wait until the run finishes")
	fl.DurationVar(&f.pollTimeout, "poll-timeout", 0, "Deadline for --wait (default: apify.poll.timeout)")
	return cmd
}

// input builds the run input. Numeric limits are sent only when given.
func (f *runActorFlags) input(cmd *cobra.Command) (apify.RunActorInput, error) {
	in := apify.RunActorInput{
		ActorID:  f.actorID,
		Build:    f.build,
		Webhooks: f.webhooks,
	}
	changed := cmd.Flags().Changed
	if changed("timeout") {
		in.Timeout = apify.Ptr(f.timeout)
	}
	if changed("memory") {
		in.Memory = apify.Ptr(f.memory)
	}
	if changed("max-items") {
		in.MaxItems = apify.Ptr(f.maxItems)
	}
	if changed("max-total-charge-usd") {
		in.MaxTotalChargeUsd = apify.Ptr(f.maxTotalChargeUsd)
	}
	if changed("wait-for-finish") {
		in.WaitForFinish = apify.Ptr(f.waitForFinish)
	}

	if f.inputFile != "" {
		input, err := readInput(cmd.InOrStdin(), f.inputFile)
		if err != nil {
			return in, err
		}
		in.Input = input
	}
	return in, nil
}

func readInput(stdin io.Reader, path string) (map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.InvalidInput("input", err.Error()).WithCause(err)
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, errors.InvalidFormat("input", "a JSON object").WithCause(err)
	}
	return input, nil
}

func newLastRunCommand(a *app) *cobra.Command {
	var in apify.LastRunInput
	var status string
	cmd := &cobra.Command{
		Use:     "last-run",
		Short:   "Show the most recent run of an actor",
		Example: `  apify last-run --actor apify~web-scraper --status SUCCEEDED`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Status = apify.RunStatus(status)
			conn, err := a.connection()
			if err != nil {
				return err
			}
			run, err := conn.GetLastActorRun(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.print(run)
		},
	}
	cmd.Flags().StringVar(&in.ActorID, "actor", "", "Actor ID or username~name")
	cmd.Flags().StringVar(&status, "status", "", "Only consider runs with this status")
	return cmd
}
