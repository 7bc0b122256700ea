package main

import (
	"fmt"
	"io"
	"os"

	"github.com/drakos74/free-ml/infra/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRoot() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:           "free-ml",
		Short:         "AutoML over csv files",
		Long:          `free-ml profiles a csv dataset, compares a catalog of models on a target column and keeps the best one. The serve command exposes the same steps as a web application.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./free-ml.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level")
	a.bind(root, "log.level", "log-level")

	root.AddCommand(
		a.serveCmd(),
		a.profileCmd(),
		a.trainCmd(),
		a.predictCmd(),
	)
	return root
}

// bind makes the flag override the config key when it is set.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("could not bind flag '%s': %s", flag, err.Error()))
	}
}

func (a *app) load() error {
	c, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := c.Log.Logger(); err != nil {
		return err
	}
	a.cfg = c
	return nil
}

// output returns the file to write to, or the command output if no path is given.
func output(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create '%s': %w", path, err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
