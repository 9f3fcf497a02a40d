package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/render"
	"github.com/roach88/invoiceforge/internal/template"
)

func newTemplatesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the invoice templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.formatter(cmd).Success(templatesView(template.Options()))
		},
	}
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	var (
		output string
		as     string
		logo   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the draft as PDF or as a JSON document tree",
		Long: `Render the draft with its template.

The file is named after the document type and number (Invoice_INV-001.pdf)
unless --output is given; "-" writes to stdout. --logo attaches an image file,
http(s) URL or data: URI as the sender logo. A logo that cannot be loaded is
left out.

Examples:
  invoiceforge export
  invoiceforge export --logo ./logo.png --output out/invoice.pdf
  invoiceforge export --as json --output -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				format, err := render.ParseFormat(as)
				if err != nil {
					return usagef("--as: %v", err)
				}
				var ref *model.LogoRef
				if logo != "" {
					ref = &model.LogoRef{Source: logo}
				}

				if output == "-" {
					if err := s.Export(ctx, format, ref, cmd.OutOrStdout()); err != nil {
						return &renderError{err: err}
					}
					return nil
				}

				path := output
				if path == "" {
					path = render.FileName(s.Drafts.Invoice(), format)
				}
				if err := writeExport(path, func(w io.Writer) error {
					return s.Export(ctx, format, ref, w)
				}); err != nil {
					return &renderError{err: err}
				}
				s.out.VerboseLog("Rendered %s with template %s", path, s.Drafts.Invoice().Template)
				return s.out.Success(message{
					text: "Wrote " + path,
					data: map[string]string{"path": path, "format": string(format)},
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path ("-" for stdout)`)
	cmd.Flags().StringVar(&as, "as", string(render.FormatPDF), "export format (pdf|json)")
	cmd.Flags().StringVar(&logo, "logo", "", "sender logo: file path, http(s) URL or data: URI")
	return cmd
}

// writeExport writes to path through a temporary file so a failed render
// leaves no partial output behind.
func writeExport(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func newImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Open an invoice JSON document as the draft",
		Long: `Validate an invoice JSON document and open it as the draft.

Every problem in the document is reported. Fields the document leaves out
take the defaults of a blank invoice. "-" reads from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *session) error {
				name := args[0]
				var (
					data []byte
					err  error
				)
				if name == "-" {
					name = "stdin"
					data, err = io.ReadAll(cmd.InOrStdin())
				} else {
					data, err = os.ReadFile(name)
				}
				if err != nil {
					if errors.Is(err, os.ErrNotExist) {
						return usagef("import: %s does not exist", name)
					}
					return fmt.Errorf("import: %w", err)
				}
				if _, err := s.Import(name, data); err != nil {
					return err
				}
				return s.saveAndShow(ctx)
			})
		},
	}
}
