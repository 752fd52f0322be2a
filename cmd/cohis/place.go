package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/placement"
)

type placeOptions struct {
	side     string
	anchor   string
	floating string
	viewport string
	gap      float64
	arrow    float64
}

func placeCmd() *cobra.Command {
	var opts placeOptions

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Compute a placement",
		Long: `Compute where a floating element goes relative to its anchor and print
the result as JSON. On the axis along the anchor's edge, a position that
would overflow the viewport is shifted back inside it. The axis pointing away
from the anchor is never adjusted.

Examples:
  cohis place --side=bottom --anchor=100,100,50,20 --floating=80,40 --viewport=1024,768
  cohis place --side=left --anchor=500,300,80,30 --floating=200,100 --gap=5 --arrow=10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.place()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}

	cmd.Flags().StringVarP(&opts.side, "side", "s", "top", "Side of the anchor (top, bottom, left, right)")
	cmd.Flags().StringVarP(&opts.anchor, "anchor", "a", "", "Anchor box as left,top,width,height")
	cmd.Flags().StringVarP(&opts.floating, "floating", "f", "", "Floating element size as width,height")
	cmd.Flags().StringVar(&opts.viewport, "viewport", "1920,1080", "Viewport size as width,height")
	cmd.Flags().Float64Var(&opts.gap, "gap", 5, "Distance from the anchor edge")
	cmd.Flags().Float64Var(&opts.arrow, "arrow", 0, "Room reserved for an arrow")
	_ = cmd.MarkFlagRequired("anchor")
	_ = cmd.MarkFlagRequired("floating")

	return cmd
}

// place parses the options and computes the placement. Unlike the HTTP API,
// the command rejects unknown sides since a typo on the command line is far
// more likely than a deliberate one.
func (o placeOptions) place() (placement.Placement, error) {
	side := placement.ParseSide(o.side)
	if !side.Valid() {
		return placement.Placement{}, errors.New("E120").
			WithSource("--side").
			WithDetail(fmt.Sprintf("Unknown side %q", o.side)).
			WithSuggestion("Use top, bottom, left or right")
	}
	a, err := parseFloats("--anchor", o.anchor, 4)
	if err != nil {
		return placement.Placement{}, err
	}
	f, err := parseFloats("--floating", o.floating, 2)
	if err != nil {
		return placement.Placement{}, err
	}
	v, err := parseFloats("--viewport", o.viewport, 2)
	if err != nil {
		return placement.Placement{}, err
	}
	if o.gap < 0 || o.arrow < 0 {
		return placement.Placement{}, errors.New("E120").
			WithSource("--gap").
			WithDetail("Gap and arrow must not be negative")
	}

	return placement.Place(
		placement.RectXYWH(a[0], a[1], a[2], a[3]),
		placement.Size{Width: f[0], Height: f[1]},
		side,
		placement.Offsets{Gap: o.gap, ArrowLength: o.arrow},
		placement.Viewport{Width: v[0], Height: v[1]},
	), nil
}

// parseFloats parses n comma-separated numbers. Every value but the
// leading coordinates of a 4-tuple must be non-negative.
func parseFloats(flag, s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.New("E120").
			WithSource(flag).
			WithDetail(fmt.Sprintf("Expected %d comma-separated numbers, got %q", n, s))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New("E120").WithSource(flag).Wrap(err)
		}
		sizeField := n == 2 || i >= 2
		if sizeField && v < 0 {
			return nil, errors.New("E120").
				WithSource(flag).
				WithDetail(fmt.Sprintf("Size %v must not be negative", v))
		}
		out[i] = v
	}
	return out, nil
}
