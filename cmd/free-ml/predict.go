package main

import (
	"fmt"
	"os"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/spf13/cobra"
)

// PredictionColumn is appended to the input rows by the predict command.
const PredictionColumn = "prediction_label"

func (a *app) predictCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "predict <model> <csv>",
		Short: "Label the rows of a csv file with a saved model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("could not open model '%s': %w", args[0], err)
			}
			defer file.Close()
			model, err := automl.Load(file)
			if err != nil {
				return err
			}
			f, err := frame.ReadFile(args[1])
			if err != nil {
				return err
			}
			labels, err := model.Predict(f)
			if err != nil {
				return err
			}
			result, err := labelled(f, labels)
			if err != nil {
				return err
			}
			w, err := output(cmd, out)
			if err != nil {
				return err
			}
			defer w.Close()
			return result.WriteCSV(w)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default is stdout)")
	return cmd
}

func labelled(f *frame.Frame, labels []string) (*frame.Frame, error) {
	header := append(f.Names(), PredictionColumn)
	records := make([][]string, f.Rows())
	for i := range records {
		records[i] = append(f.Row(i), labels[i])
	}
	return frame.New(header, records)
}
