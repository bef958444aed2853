package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chazu/curvekit/pkg/engine"
	"github.com/chazu/curvekit/pkg/hull"
	"github.com/chazu/curvekit/pkg/tessellate"
)

// newRootCmd builds the command tree. Each call gets its own viper
// instance so tests can run commands side by side.
func newRootCmd() *cobra.Command {
	conf := newConf()
	var s settings
	var log *slog.Logger

	root := &cobra.Command{
		Use:   "curvekit",
		Short: "curvekit: hull-based curve queries",
		Long: `
curvekit evaluates curve scripts. A script defines curves (lines, arcs,
helices, rational Beziers, and transforms or trims of them) and runs
hull queries such as closest point, extrema, plane and curve
intersection, hit tests, length and approximation.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if s, err = loadSettings(conf); err != nil {
				return err
			}
			log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: s.LogLevel}))
			hull.SetLogger(log)
			return nil
		},
	}
	root.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by values set with environment variables and flags.")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error.")
	root.PersistentFlags().Duration("timeout", engine.EvalTimeout, "Hard limit for one script evaluation.")
	root.PersistentFlags().Bool("pretty", false, "Indent JSON output.")
	if err := conf.BindPFlags(root.PersistentFlags()); err != nil {
		panic(err)
	}

	app := func() *App { return NewApp(s, log) }
	root.AddCommand(newEvalCmd(conf, app), newTessellateCmd(conf, app))
	return root
}

func newEvalCmd(conf *viper.Viper, app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a script and print its query records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), conf, app().Evaluate(source))
		},
	}
}

func newTessellateCmd(conf *viper.Viper, app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tessellate <script>",
		Short: "Evaluate a script and print a polyline per curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			opts := tessellate.Options{
				MaxError:  conf.GetFloat64("max-error"),
				LinesOnly: conf.GetBool("lines-only"),
			}
			return emit(cmd.OutOrStdout(), conf, app().Tessellate(source, opts, conf.GetFloat64("tube-radius")))
		},
	}
	cmd.Flags().Float64("max-error", tessellate.DefaultOptions().MaxError, "Largest allowed deviation from the curve.")
	cmd.Flags().Bool("lines-only", false, "Approximate with straight segments only.")
	cmd.Flags().Float64("tube-radius", 0, "Also sweep each curve into a tube mesh of this radius.")
	if err := conf.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

// readScript reads a script file, or stdin when path is "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(b), nil
}

// errScript is returned after printing a result that carries errors, so
// the process exits non-zero.
var errScript = fmt.Errorf("script failed")

// emit writes result as JSON.
func emit(w io.Writer, conf *viper.Viper, result Result) error {
	enc := json.NewEncoder(w)
	if conf.GetBool("pretty") {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.OK() {
		return errScript
	}
	return nil
}
