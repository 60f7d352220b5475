package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/render"
)

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var (
		file    string
		geojson bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one risk tick over a JSON snapshot",
		Long: "Reads {\"subject\": {...}, \"nearby\": [...]} from --file (or stdin with -)\n" +
			"and prints the tick output, or its GeoJSON rendering with --geojson.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readTickInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			engine, err := root.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out, err := engine.Evaluate(context.Background(), in)
			if err != nil {
				return err
			}
			if geojson {
				return writeJSON(cmd.OutOrStdout(), render.TickFeatures(out))
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "snapshot file, - for stdin")
	cmd.Flags().BoolVar(&geojson, "geojson", false, "print a GeoJSON FeatureCollection")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readTickInput(file string, stdin io.Reader) (collision.TickInput, error) {
	var in collision.TickInput
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return in, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse snapshot: %w", err)
	}
	return in, nil
}

type printSink struct {
	w io.Writer
}

func newPrintSink(w io.Writer) *printSink {
	return &printSink{w: w}
}

func (s *printSink) Emit(_ context.Context, ev collision.AlertEvent) error {
	_, err := fmt.Fprintf(s.w, "ALERT %s\n", ev.Message)
	return err
}
