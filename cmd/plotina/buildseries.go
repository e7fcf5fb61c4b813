package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/plotina/internal/config"
	"github.com/mtlprog/plotina/internal/seriesbuild"
)

const defaultDocBase = "assets/data/indicators.pdf"

func buildSeriesCommand(cfg *config.Config) *cli.Command {
	docBase := cfg.DocBaseURL
	if docBase == "" {
		docBase = defaultDocBase
	}

	return &cli.Command{
		Name:  "build-series",
		Usage: "build a series source from per-response indicator results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "results", Required: true, Usage: "results JSON with responses and per-response indicator values"},
			&cli.StringFlag{Name: "descriptions", Usage: "indicator descriptions JSON"},
			&cli.StringFlag{Name: "doc-base", Value: docBase, Usage: "documentation PDF linked from indicator URLs"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file; stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			f, err := os.Open(c.String("results"))
			if err != nil {
				return fmt.Errorf("opening results: %w", err)
			}
			defer f.Close()

			in, err := seriesbuild.ReadInput(f)
			if err != nil {
				return err
			}

			var descriptions map[string]seriesbuild.Description
			if path := c.String("descriptions"); path != "" {
				df, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening descriptions: %w", err)
				}
				defer df.Close()
				if descriptions, err = seriesbuild.ReadDescriptions(df); err != nil {
					return err
				}
			}

			series, err := seriesbuild.Build(in, descriptions, c.String("doc-base"))
			if err != nil {
				return err
			}
			return writeTo(c.String("out"), func(w io.Writer) error { return seriesbuild.Write(w, series) })
		},
	}
}
