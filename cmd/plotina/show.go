package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/plotina/internal/config"
	"github.com/mtlprog/plotina/internal/export"
)

func showCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print impacts and the composite series",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "weight", Usage: "override a weight as CODE=VALUE (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			weights, err := parseWeights(c.StringSlice("weight"))
			if err != nil {
				return err
			}

			sess, err := openSession(c.Context, *cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.dash.Start(c.Context); err != nil {
				return err
			}
			if len(weights) > 0 {
				if err := sess.dash.SetWeights(weights); err != nil {
					return err
				}
			}

			state, err := sess.dash.State()
			if err != nil {
				return err
			}
			if err := export.WriteImpactsTable(os.Stdout, state); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout)
			return export.WriteCompositeTable(os.Stdout, state)
		},
	}
}

// parseWeights reads CODE=VALUE pairs.
func parseWeights(pairs []string) (map[string]float64, error) {
	weights := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		code, raw, ok := strings.Cut(pair, "=")
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid weight %q, want CODE=VALUE", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", pair, err)
		}
		weights[code] = v
	}
	return weights, nil
}
