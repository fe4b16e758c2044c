package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/dmn-getstarted/pkg/engine"
)

var (
	resourcesDir string
	decisionKey  string
	rawVars      []string
	asJSON       bool
	verbose      bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "decide",
		Short:        "Evaluate decision tables offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&resourcesDir, "resources", "r", "resources", "decision resources directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every evaluation")

	evaluate := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one decision table with the given variables",
		Example: `  decide evaluate --key dish --var season=Spring --var guestCount=10
  decide evaluate --key carrier --var paysDestination=France --var poidsColis=6.0 --var typeLivraison=Standard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), cmd.OutOrStdout())
		},
	}
	evaluate.Flags().StringVarP(&decisionKey, "key", "k", "", "decision key")
	evaluate.Flags().StringArrayVar(&rawVars, "var", nil, "variable as name=value, repeatable")
	evaluate.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = evaluate.MarkFlagRequired("key")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the decision tables found in the resources directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout())
		},
	}

	root.AddCommand(evaluate, list)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func open(ctx context.Context) (*engine.Engine, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return engine.Open(ctx, resourcesDir, engine.WithLogger(log), engine.WithDeploymentName("decide"))
}

func runEvaluate(ctx context.Context, out io.Writer) error {
	vars, err := parseVars(rawVars)
	if err != nil {
		return err
	}
	eng, err := open(ctx)
	if err != nil {
		return err
	}

	res, err := eng.EvaluateDecisionTableByKey(ctx, decisionKey, vars)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(out, vars, res)
	return nil
}

func runList(ctx context.Context, out io.Writer) error {
	eng, err := open(ctx)
	if err != nil {
		return err
	}
	for _, def := range eng.Definitions() {
		fmt.Fprintf(out, "%-12s v%d  %-10s %-14s %s\n", def.Key, def.Version, def.Table.EffectiveHitPolicy(), def.ResourceName, def.Name)
	}
	return nil
}

func printResult(out io.Writer, vars *engine.Variables, res *engine.DecisionResult) {
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "   DECISION %s (v%d)\n", res.DecisionKey, res.Version)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\n[1. VARIABLES]\n   %s\n", vars)

	fmt.Fprintln(out, "\n[2. MATCHED RULES]")
	if len(res.MatchedRules) == 0 {
		fmt.Fprintln(out, "   none")
	}
	for _, id := range res.MatchedRules {
		fmt.Fprintf(out, "   - %s\n", id)
	}

	fmt.Fprintln(out, "\n[3. RESULTS]")
	for i, entries := range res.Results {
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			parts = append(parts, fmt.Sprintf("%s=%v", e.Name, e.Value))
		}
		fmt.Fprintf(out, "   #%d %s\n", i+1, strings.Join(parts, ", "))
	}
	fmt.Fprintln(out, strings.Repeat("=", 60))
}

// parseVars reads name=value pairs. Values are typed the way YAML scalars
// are: 10 is a number, false a boolean, Spring a string.
func parseVars(raw []string) (*engine.Variables, error) {
	vars := engine.NewVariables()
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, want name=value", kv)
		}
		var typed any
		if err := yaml.Unmarshal([]byte(value), &typed); err != nil || typed == nil {
			typed = value
		}
		vars.Put(name, typed)
	}
	if err := vars.Validate(); err != nil {
		return nil, err
	}
	return vars, nil
}
