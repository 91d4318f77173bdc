package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
	"github.com/matzehuels/classscan/pkg/pipeline"
	"github.com/matzehuels/classscan/pkg/render/nodelink"
	"github.com/matzehuels/classscan/pkg/storage"
)

// formatSQLite exports into a SQLite database instead of a rendered file.
const formatSQLite = "sqlite"

// defaultExportBase names export files when --output is not given.
const defaultExportBase = "classes"

// exportOpts holds the export-only flags.
type exportOpts struct {
	output   string
	formats  []string
	detailed bool
	external bool
	labels   bool
	cluster  bool
	kinds    []string
	pngScale float64
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		flags scanFlags
		opts  exportOpts
	)

	cmd := &cobra.Command{
		Use:   "export [classpath...]",
		Short: "Export the class graph as JSON, YAML, DOT, SVG, PNG, PDF or SQLite",
		Long: `Export the class graph of a classpath.

With one format and no --output, text formats (json, yaml, dot) are written to
stdout. With several formats, --output is the base path and each file gets the
format's extension.`,
		Example: `  classscan export target/classes -f json > classes.json
  classscan export target/classes -f svg,png -o build/classes --cluster
  classscan export target/classes -f sqlite -o classes.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateExportFormats(opts.formats); err != nil {
				return err
			}
			mask, err := parseKinds(opts.kinds)
			if err != nil {
				return err
			}
			pipeOpts, err := flags.options(cmd, args, c.cfg())
			if err != nil {
				return err
			}
			pipeOpts.Formats = renderFormats(opts.formats)
			pipeOpts.PNGScale = opts.pngScale
			pipeOpts.Graph = nodelink.Options{
				Detailed:        opts.detailed,
				IncludeExternal: opts.external,
				EdgeLabels:      opts.labels,
				ClusterPackages: opts.cluster,
				Kinds:           mask,
			}
			pipeOpts.Logger = loggerFromContext(cmd.Context())

			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := c.execute(cmd.Context(), runner, pipeOpts)
			if err != nil {
				return err
			}
			defer res.Close()

			prog := newProgress(pipeOpts.Logger)
			if err := writeExports(cmd.Context(), res, &opts); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Exported %s", strings.Join(opts.formats, ", ")))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", []string{pipeline.FormatJSON}, "output formats: json, yaml, dot, svg, png, pdf, sqlite")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show kinds, members and annotations in graph nodes")
	cmd.Flags().BoolVar(&opts.external, "external", false, "draw referenced classes outside the classpath")
	cmd.Flags().BoolVar(&opts.labels, "edge-labels", false, "label graph edges with their kinds")
	cmd.Flags().BoolVar(&opts.cluster, "cluster", false, "group graph nodes by package")
	cmd.Flags().StringSliceVar(&opts.kinds, "kinds", nil, "only draw edges of these kinds")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")
	return cmd
}

func validateExportFormats(formats []string) error {
	if len(formats) == 0 {
		return errs.New(errs.ErrCodeInvalidFormat, "no output format")
	}
	for _, f := range formats {
		if f == formatSQLite {
			continue
		}
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// renderFormats drops the formats the pipeline does not render.
func renderFormats(formats []string) []string {
	var out []string
	for _, f := range formats {
		if f != formatSQLite {
			out = append(out, f)
		}
	}
	return out
}

// writeExports writes every requested format of res.
func writeExports(ctx context.Context, res *pipeline.Result, opts *exportOpts) error {
	single := len(opts.formats) == 1
	base := exportBase(opts.output)

	for _, format := range opts.formats {
		path := base + "." + fileExt(format)
		if single && opts.output != "" {
			path = opts.output
		}

		if format == formatSQLite {
			if err := exportSQLite(ctx, res.Snapshot, path); err != nil {
				return err
			}
			if info, err := os.Stat(path); err == nil {
				printFile(path, int(info.Size()))
			}
			continue
		}

		data := res.Artifacts[format]
		if single && opts.output == "" && isText(format) {
			_, err := stdout.Write(data)
			return err
		}
		if err := writeFile(path, data); err != nil {
			return err
		}
		printFile(path, len(data))
	}
	return nil
}

// exportBase strips a known format extension from output.
func exportBase(output string) string {
	if output == "" {
		return defaultExportBase
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] || ext == "db" {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

func fileExt(format string) string {
	if format == formatSQLite {
		return "db"
	}
	return format
}

func isText(format string) bool {
	switch format {
	case pipeline.FormatJSON, pipeline.FormatYAML, pipeline.FormatDOT:
		return true
	}
	return false
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// exportSQLite replaces the contents of the database at path with snap.
func exportSQLite(ctx context.Context, snap *pkgio.Snapshot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.WriteSnapshot(ctx, snap)
}
