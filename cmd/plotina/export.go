package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/plotina/internal/config"
	"github.com/mtlprog/plotina/internal/export"
)

func exportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the computed state as settings JSON, XLSX, Parquet or Google Sheets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "settings", Usage: "settings, xlsx, parquet or sheets"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (directory for parquet); stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			sess, err := openSession(c.Context, *cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.dash.Start(c.Context); err != nil {
				return err
			}
			state, err := sess.dash.State()
			if err != nil {
				return err
			}

			out := c.String("out")
			switch c.String("format") {
			case "settings":
				return writeTo(out, func(w io.Writer) error { return export.WriteSettings(w, state.Indicators) })
			case "xlsx":
				return writeTo(out, func(w io.Writer) error { return export.WriteXLSX(w, state) })
			case "parquet":
				if out == "" {
					return fmt.Errorf("parquet export needs --out directory")
				}
				return export.WriteParquetDir(out, state)
			case "sheets":
				if !cfg.SheetsEnabled() {
					return fmt.Errorf("SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON are required")
				}
				writer, err := export.NewSheetsWriter(c.Context, cfg.SpreadsheetID, cfg.GoogleCredentials)
				if err != nil {
					return err
				}
				return export.NewService(sess.dash, writer).Export(c.Context)
			default:
				return fmt.Errorf("unknown format %q", c.String("format"))
			}
		},
	}
}

// writeTo runs write against the named file, or stdout when path is empty.
func writeTo(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
