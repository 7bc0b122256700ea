package main

import (
	"fmt"
	"os"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) trainCmd() *cobra.Command {
	var target, task, out string
	var clean bool
	cmd := &cobra.Command{
		Use:   "train <csv>",
		Short: "Compare the model catalog on a target column and save the best model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := read(args[0], clean)
			if err != nil {
				return err
			}
			t, err := automl.ParseTask(task)
			if err != nil {
				return err
			}
			exp, err := automl.Setup(f, target, t, a.cfg.Pipeline().Training)
			if err != nil {
				return err
			}
			board, err := exp.Compare(cmd.Context())
			if err != nil {
				return err
			}
			if err := board.WriteCSV(cmd.OutOrStdout()); err != nil {
				return err
			}
			best, ok := board.Best()
			if !ok {
				return automl.ErrNoCandidates
			}
			model, err := exp.Finalize(best)
			if err != nil {
				return err
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("could not create '%s': %w", out, err)
			}
			defer file.Close()
			if err := automl.Save(file, model.Artifact); err != nil {
				return err
			}
			log.Info().
				Str("model", best.ID).
				Str("metric", board.Sort).
				Float64("score", best.Scores[board.Sort]).
				Str("file", out).
				Msg("saved best model")
			return file.Close()
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "target column")
	cmd.Flags().StringVar(&task, "task", string(automl.Auto), "classification, regression or auto")
	cmd.Flags().StringVarP(&out, "out", "o", "best_model.fml.xz", "model file")
	cmd.Flags().BoolVar(&clean, "clean", false, "drop duplicate rows before training")
	cmd.Flags().StringSlice("include", nil, "model ids to compare")
	cmd.Flags().StringSlice("exclude", nil, "model ids to skip")
	cmd.Flags().Int("folds", 5, "number of cross validation folds")
	cmd.Flags().String("sort", "", "metric ordering the leaderboard")
	a.bind(cmd, "training.include", "include")
	a.bind(cmd, "training.exclude", "exclude")
	a.bind(cmd, "training.folds", "folds")
	a.bind(cmd, "training.sort", "sort")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
