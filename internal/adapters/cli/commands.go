package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"aura-finance/internal/ai"
	"aura-finance/internal/app"
	"aura-finance/internal/logger"

	"github.com/spf13/cobra"
)

// passwordEnv supplies a password to commands run without --password.
const passwordEnv = "AURA_PASSWORD"

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.service(cmd.Context()); err != nil {
				return err
			}
			log := logger.WithComponent("migrate")
			log.Info().Msg("schema is up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}

func newExtractCmd(e *env) *cobra.Command {
	var (
		pdfOut   string
		save     bool
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract an invoice from an image, PDF or voice note",
		Long: `Extract runs the AI extraction over a file and prints the normalized
invoice as JSON. Use --pdf to render it and --save to store it for a user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			svc, err := e.service(ctx)
			if err != nil {
				return err
			}

			userID := 0
			if save {
				user, err := svc.Authenticate(ctx, username, passwordOrEnv(password))
				if err != nil {
					return err
				}
				userID = user.ID
			}
			sess := svc.StartSession(userID)
			defer svc.EndSession(sess.ID)

			inv, err := svc.AnalyzeDocument(ctx, sess, data, fileMediaType(args[0], data))
			if err != nil {
				return err
			}
			if err := writeIndented(cmd.OutOrStdout(), inv); err != nil {
				return err
			}

			if pdfOut != "" {
				doc, err := svc.RenderDraft(ctx, sess)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfOut, doc.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", pdfOut)
			}

			if save {
				saved, err := svc.SaveDraft(ctx, sess)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved invoice %s (id %d)\n", saved.InvoiceNumber, saved.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "also render the invoice to this PDF file")
	cmd.Flags().BoolVar(&save, "save", false, "store the invoice for --user")
	cmd.Flags().StringVarP(&username, "user", "u", "", "account username (DNI/NIF)")
	cmd.Flags().StringVar(&password, "password", "", "account password (default $"+passwordEnv+")")
	cmd.MarkFlagsRequiredTogether("save", "user")
	return cmd
}

func newRenderCmd(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <record.json>",
		Short: "Render an invoice record to PDF",
		Long: `Render reads an extraction result or a stored invoice record as JSON,
normalizes it and writes the branded PDF. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := readRecord(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			svc, err := e.service(ctx)
			if err != nil {
				return err
			}
			doc, err := svc.RenderRecord(ctx, raw)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = doc.Filename
			}
			if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default Invoice_<number>.pdf)")
	return cmd
}

func newCompareCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <invoice.txt> <delivery-note.txt>",
		Short: "Summarize discrepancies between an invoice and a delivery note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			invoiceText, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			noteText, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			svc, err := e.service(ctx)
			if err != nil {
				return err
			}
			result, err := svc.CompareDocuments(ctx, app.CompareRequest{
				InvoiceText:      string(invoiceText),
				DeliveryNoteText: string(noteText),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Summary)
			return nil
		},
	}
}

func newUserCmd(e *env) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var password string
	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := e.service(ctx)
			if err != nil {
				return err
			}
			user, err := svc.Register(ctx, args[0], passwordOrEnv(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&password, "password", "", "account password (default $"+passwordEnv+")")

	userCmd.AddCommand(createCmd)
	return userCmd
}

func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

// fileMediaType sniffs data, falling back to the file extension when the
// content alone does not identify a supported type.
func fileMediaType(path string, data []byte) string {
	header := data
	if len(header) > 512 {
		header = header[:512]
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(header))
	if ai.ClassifyMedia(sniffed) != ai.MediaUnsupported {
		return sniffed
	}
	if byExt, _, err := mime.ParseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))); err == nil {
		if ai.ClassifyMedia(byExt) != ai.MediaUnsupported {
			return byExt
		}
	}
	return sniffed
}

// readRecord decodes a JSON document from path, or from stdin when path is "-".
// Numbers are kept exact.
func readRecord(stdin io.Reader, path string) (any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return raw, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
