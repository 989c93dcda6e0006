package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/ingest"
)

// ErrVerificationFailed is returned when any file is rejected or unreadable.
var ErrVerificationFailed = errors.New("verification failed")

func verifyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "lax",
			Aliases: []string{"l"},
			Usage:   "check only the core metadata tables",
		},
		&cli.BoolFlag{
			Name:  "no-metadata",
			Usage: "do not require the core metadata tables",
		},
		&cli.BoolFlag{
			Name:  "no-form-search",
			Usage: "require files to resolve to a form without matching their tables",
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"j"},
			Value:   ingest.DefaultConcurrency,
			Usage:   "files verified in parallel",
		},
		&cli.BoolFlag{
			Name:  "notices",
			Usage: "also print informational entries",
		},
		formatFlag(),
	}
}

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check extended CSV files against the table catalog",
		ArgsUsage: "PATH...",
		Description: `Parse each file, resolve its CONTENT identity in the catalog and check
that every required table and column is present. Directories are walked
for *.csv files.`,
		Flags: verifyFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := newService(cmd, nil)
			if err != nil {
				return err
			}
			return runBatch(ctx, cmd, svc, false)
		},
	}
}

// runBatch verifies the command's path arguments and prints the results.
func runBatch(ctx context.Context, cmd *cli.Command, svc *core.Service, record bool) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() == 0 {
		return errors.New("at least one file or directory is required")
	}

	runner := ingest.New(svc, ingest.Options{
		Concurrency: concurrency(cmd),
		Record:      record,
	})
	summary, err := runner.Run(ctx, cmd.Args().Slice())
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if outFormat == FormatText {
		writeSummaryText(w, summary, cmd.Bool("notices"))
	} else if err := encode(w, outFormat, newBatchOutput(summary)); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if !summary.OK() {
		return fmt.Errorf("%w: %d rejected, %d unreadable", ErrVerificationFailed, summary.Failed, summary.Errored)
	}
	return nil
}

// fileOutput is one file's result in JSON and YAML output.
type fileOutput struct {
	Path     string       `json:"path" yaml:"path"`
	ReportID string       `json:"reportId,omitempty" yaml:"reportId,omitempty"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
	Code     string       `json:"code,omitempty" yaml:"code,omitempty"`
	Report   *core.Report `json:"report,omitempty" yaml:"report,omitempty"`
}

type batchOutput struct {
	Files   []fileOutput `json:"files" yaml:"files"`
	Passed  int          `json:"passed" yaml:"passed"`
	Failed  int          `json:"failed" yaml:"failed"`
	Errored int          `json:"errored" yaml:"errored"`
}

func newBatchOutput(s *ingest.Summary) batchOutput {
	out := batchOutput{
		Files:   make([]fileOutput, 0, len(s.Results)),
		Passed:  s.Passed,
		Failed:  s.Failed,
		Errored: s.Errored,
	}
	for _, res := range s.Results {
		f := fileOutput{Path: res.Path, ReportID: res.ReportID, Report: res.Report}
		if res.Err != nil {
			f.Error = res.Err.Error()
			f.Code = core.MapError(res.Err).Code
		}
		out.Files = append(out.Files, f)
	}
	return out
}

func writeSummaryText(w io.Writer, s *ingest.Summary, notices bool) {
	for _, res := range s.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "ERROR %s: %s\n", res.Path, core.FormatUserError(res.Err))
			fmt.Fprintf(w, "      %v\n", res.Err)
			continue
		case res.Passed():
			fmt.Fprintf(w, "PASS  %s", res.Path)
		default:
			fmt.Fprintf(w, "FAIL  %s", res.Path)
		}

		if id, ok := res.Report.Resolved(); ok {
			fmt.Fprintf(w, " (%s)", id)
		}
		if !res.Passed() {
			fmt.Fprintf(w, ": %s", res.Report.Summary())
		}
		if res.ReportID != "" {
			fmt.Fprintf(w, " [report %s]", res.ReportID)
		}
		fmt.Fprintln(w)

		for _, v := range res.Report.Violations() {
			fmt.Fprintf(w, "      %s %s\n", v.Code, v.Message)
		}
		if notices {
			for _, v := range res.Report.Notices() {
				fmt.Fprintf(w, "      %s (info) %s\n", v.Code, v.Message)
			}
		}
	}
	fmt.Fprintf(w, "\n%d file(s): %d passed, %d failed, %d unreadable\n",
		len(s.Results), s.Passed, s.Failed, s.Errored)
}
