package main

import (
	"fmt"

	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/profile"
	"github.com/spf13/cobra"
)

func (a *app) profileCmd() *cobra.Command {
	var format, out string
	var clean bool
	cmd := &cobra.Command{
		Use:   "profile <csv>",
		Short: "Write the profiling report of a csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := read(args[0], clean)
			if err != nil {
				return err
			}
			report, err := profile.Build(f, a.cfg.Pipeline().Profile)
			if err != nil {
				return err
			}
			w, err := output(cmd, out)
			if err != nil {
				return err
			}
			defer w.Close()
			switch format {
			case "html":
				return report.HTML(w)
			case "json":
				return report.JSON(w)
			}
			return fmt.Errorf("unknown format '%s'", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "html", "report format, html or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default is stdout)")
	cmd.Flags().BoolVar(&clean, "clean", false, "drop duplicate rows before profiling")
	return cmd
}

// read loads the csv file, optionally without its duplicate rows.
func read(path string, clean bool) (*frame.Frame, error) {
	f, err := frame.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if clean {
		f = f.DropDuplicateRows()
	}
	return f, nil
}
