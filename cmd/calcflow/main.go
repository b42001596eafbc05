// Package main provides the calcflow CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/calcflow/cli"
)

var (
	// Global flags
	provider   string
	verbose    bool
	dbPath     string
	jsonOutput bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "calcflow",
		Short: "Step-by-step multivariable calculus",
		Long: `A CLI tool for computing partial, higher-order partial and directional
derivatives with full step-by-step solutions, and for checking answers to
practice problems.

Derivations are produced by an LLM provider (openai, anthropic, deepseek, gemini).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database for calculation history (default: CALC_HISTORY_DB, else in-memory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(partialCmd())
	rootCmd.AddCommand(directionalCmd())
	rootCmd.AddCommand(practiceCmd())
	rootCmd.AddCommand(interactiveCmd())
	rootCmd.AddCommand(historyCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, cli.ErrCalculationFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider: provider,
		Verbose:  verbose,
		DBPath:   dbPath,
		JSON:     jsonOutput,
	}
}

// withApp opens the application, runs fn and closes it.
func withApp(needGateway bool, fn func(app *cli.App) error) error {
	app, err := cli.Open(options(), needGateway)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func partialCmd() *cobra.Command {
	var args cli.PartialArgs

	cmd := &cobra.Command{
		Use:   "partial [function]",
		Short: "Compute a partial derivative",
		Long: `Compute ∂f/∂v, optionally at a point, and optionally continue with a
second-order derivative ∂²f/∂w∂v.

Point coordinates are comma-separated; leave one empty to keep it symbolic
(e.g. --at "1," evaluates at x=1 with y symbolic).`,
		Example: `  calcflow partial "x^3*y^2 + 5x" --wrt x --at 1,2
  calcflow partial "sin(xy) + z^2 e^x" --vars 3 --wrt z --then x --same-point`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.Function = positional[0]
			return withApp(true, func(app *cli.App) error {
				return app.Partial(cmd.Context(), args)
			})
		},
	}

	cmd.Flags().StringVar(&args.Variable, "wrt", "x", "Variable to differentiate with respect to (x, y, z)")
	cmd.Flags().StringVar(&args.Point, "at", "", "Evaluation point, e.g. 1,2 or 1,2,3")
	cmd.Flags().IntVar(&args.Vars, "vars", 2, "Number of variables (2 or 3)")
	cmd.Flags().StringVar(&args.Second, "then", "", "Differentiate again with respect to this variable")
	cmd.Flags().BoolVar(&args.SamePoint, "same-point", false, "Reuse the evaluation point for the second derivative")
	cmd.Flags().StringVar(&args.Point2, "then-at", "", "Evaluation point for the second derivative")
	cmd.Flags().BoolVar(&args.Solution, "solution", false, "Show the full step-by-step solution")

	return cmd
}

func directionalCmd() *cobra.Command {
	var args cli.DirectionalArgs

	cmd := &cobra.Command{
		Use:   "directional [function]",
		Short: "Compute a directional derivative",
		Long: `Compute D_u f at a point. The direction is given by exactly one of
--vector, --angle (radians, two variables only) or --to (a target point).`,
		Example: `  calcflow directional "x^2 - 3xy" --at 1,2 --vector 3,4
  calcflow directional "x^2 + y^2 - z^2" --vars 3 --at 1,1,1 --to 2,3,0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.Function = positional[0]
			return withApp(true, func(app *cli.App) error {
				return app.Directional(cmd.Context(), args)
			})
		},
	}

	cmd.Flags().StringVar(&args.Point, "at", "", "Evaluation point, e.g. 1,2 or 1,2,3")
	cmd.Flags().IntVar(&args.Vars, "vars", 2, "Number of variables (2 or 3)")
	cmd.Flags().StringVar(&args.Vector, "vector", "", "Direction vector components")
	cmd.Flags().StringVar(&args.Angle, "angle", "", "Direction angle in radians")
	cmd.Flags().StringVar(&args.To, "to", "", "Target point the direction points towards")
	cmd.Flags().BoolVar(&args.Solution, "solution", false, "Show the full step-by-step solution")
	cmd.MarkFlagsMutuallyExclusive("vector", "angle", "to")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func practiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice problems",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the practice problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return app.PracticeList()
			})
		},
	})

	var showSolution bool
	check := &cobra.Command{
		Use:   "check [id] [answer]",
		Short: "Check an answer to a practice problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return app.PracticeCheck(cmd.Context(), args[0], args[1], showSolution)
			})
		},
	}
	check.Flags().BoolVar(&showSolution, "solution", false, "Show the full solution after feedback")
	cmd.AddCommand(check)

	return cmd
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Start an interactive session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return app.Interactive(cmd.Context(), os.Stdin)
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded calculations",
		Long: `Show successful calculations, newest first. History persists across runs
when --db or CALC_HISTORY_DB names a SQLite database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return app.HistoryList(cmd.Context(), limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return app.HistoryClear(cmd.Context())
			})
		},
	})

	return cmd
}
