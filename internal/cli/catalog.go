package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

func catalogCmd() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect table definitions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List datasets and their versions",
				Flags:  []cli.Flag{formatFlag()},
				Action: catalogList,
			},
			{
				Name:      "show",
				Usage:     "Show every table contract of a dataset",
				ArgsUsage: "DATASET",
				Flags:     []cli.Flag{formatFlag()},
				Action:    catalogShow,
			},
			{
				Name:      "resolve",
				Usage:     "Show the table contract an identity resolves to",
				ArgsUsage: "DATASET VERSION [LEVEL [FORM]]",
				Flags:     []cli.Flag{formatFlag()},
				Action:    catalogResolve,
			},
			{
				Name:      "check",
				Usage:     "Check that a tables.yaml file is well formed",
				ArgsUsage: "FILE",
				Action:    catalogCheck,
			},
		},
	}
}

func catalogList(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	h, err := loadHolder(cmd)
	if err != nil {
		return err
	}

	sums := h.Current().Summaries()
	w := cmd.Root().Writer
	if outFormat != FormatText {
		return encode(w, outFormat, sums)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tVERSIONS")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, strings.Join(s.Versions, ", "))
	}
	return tw.Flush()
}

func catalogShow(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	name := cmd.Args().First()
	if name == "" {
		return errors.New("dataset name is required")
	}
	h, err := loadHolder(cmd)
	if err != nil {
		return err
	}

	cat := h.Current()
	ds, ok := cat.Dataset(name)
	if !ok {
		return cat.UnknownDataset(name)
	}

	view := ds.Describe()
	w := cmd.Root().Writer
	if outFormat != FormatText {
		return encode(w, outFormat, view)
	}

	fmt.Fprintln(w, view.Name)
	for _, v := range view.Versions {
		fmt.Fprintf(w, "  version %s\n", v.Name)
		for _, leaf := range v.Leaves {
			indent := "    "
			if label := leafLabel(leaf.Identity); label != "" {
				fmt.Fprintf(w, "    %s\n", label)
				indent = "      "
			}
			writeTables(w, indent, leaf)
		}
	}
	return nil
}

func catalogResolve(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	h, err := loadHolder(cmd)
	if err != nil {
		return err
	}

	id, err := identityFromArgs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	leaf, err := h.Current().Resolve(id)
	if err != nil {
		return err
	}

	view := leaf.Describe()
	w := cmd.Root().Writer
	if outFormat != FormatText {
		return encode(w, outFormat, view)
	}
	fmt.Fprintf(w, "%s resolves to %s\n", id, view.Identity)
	writeTables(w, "  ", view)
	return nil
}

func catalogCheck(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("a tables.yaml file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cat, err := catalog.Load(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "%s: ok, %d datasets, %d leaves, fingerprint %s\n",
		path, len(cat.Datasets()), len(cat.Leaves()), cat.Fingerprint())
	return nil
}

// identityFromArgs reads DATASET VERSION [LEVEL [FORM]].
func identityFromArgs(args []string) (catalog.Identity, error) {
	if len(args) < 2 || len(args) > 4 {
		return catalog.Identity{}, errors.New("usage: resolve DATASET VERSION [LEVEL [FORM]]")
	}
	id := catalog.Identity{Dataset: args[0], Version: args[1]}
	for i, dst := range []**int{&id.Level, &id.Form} {
		if len(args) <= i+2 {
			break
		}
		n, err := strconv.Atoi(args[i+2])
		if err != nil {
			return catalog.Identity{}, fmt.Errorf("%s must be an integer: %q", []string{"level", "form"}[i], args[i+2])
		}
		*dst = catalog.Int(n)
	}
	return id, nil
}

func leafLabel(id catalog.Identity) string {
	var parts []string
	if id.Level != nil {
		parts = append(parts, fmt.Sprintf("level %d", *id.Level))
	}
	if id.Form != nil {
		parts = append(parts, fmt.Sprintf("form %d", *id.Form))
	}
	return strings.Join(parts, " ")
}

func writeTables(w io.Writer, indent string, leaf catalog.LeafView) {
	for _, t := range leaf.Required {
		fmt.Fprintf(w, "%s%s: %s\n", indent, t.Name, strings.Join(t.Columns, ", "))
	}
	for _, t := range leaf.Optional {
		fmt.Fprintf(w, "%s%s (optional): %s\n", indent, t.Name, strings.Join(t.Columns, ", "))
	}
}
