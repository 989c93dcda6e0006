package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/core"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"o"},
		Value:   string(FormatText),
		Usage:   "output format (text, json, yaml)",
	}
}

// parseOutputFormat extracts and validates the output format from CLI flags.
func parseOutputFormat(cmd *cli.Command) (Format, error) {
	switch f := Format(cmd.String("format")); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %q, valid formats are: text, json, yaml", f)
	}
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// loadHolder reads the catalog named by --catalog, or the built-in one.
func loadHolder(cmd *cli.Command) (*catalog.Holder, error) {
	var src catalog.Source = catalog.EmbeddedSource{}
	if path := cmd.String("catalog"); path != "" {
		src = catalog.FileSource{Path: path}
	}
	h, err := catalog.NewHolder(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return h, nil
}

// newService builds a service on the selected catalog.
func newService(cmd *cli.Command, store core.ReportStore) (*core.Service, error) {
	h, err := loadHolder(cmd)
	if err != nil {
		return nil, err
	}
	return core.NewService(core.ServiceConfig{
		Holder:  h,
		Limiter: core.NewLimiter(concurrency(cmd), core.DefaultMaxWaitTime),
		Store:   store,
		Options: validationOptions(cmd),
	})
}

func concurrency(cmd *cli.Command) int {
	if n := int(cmd.Int("concurrency")); n > 0 {
		return n
	}
	return core.DefaultMaxConcurrentValidations
}

// validationOptions maps the verification flags to validator options.
// Metadata tables are always checked unless --no-metadata is given; --lax
// checks nothing else.
func validationOptions(cmd *cli.Command) []core.Option {
	var opts []core.Option
	if !cmd.Bool("no-form-search") {
		opts = append(opts, core.WithFormSearch())
	}
	switch {
	case cmd.Bool("lax"):
		opts = append(opts, core.WithMetadataOnly())
	case !cmd.Bool("no-metadata"):
		opts = append(opts, core.WithMetadataTables(core.DefaultMetadataTables))
	}
	return opts
}
