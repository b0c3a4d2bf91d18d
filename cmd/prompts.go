package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List evaluator prompts",
	Run: func(cmd *cobra.Command, _ []string) {
		all, _ := cmd.Flags().GetBool("all")
		log := newLogger()
		if err := listPrompts(!all, log); err != nil {
			log.Fatal("listing prompts", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)

	promptsCmd.Flags().BoolP("all", "a", false, "include inactive prompts")
}

func listPrompts(activeOnly bool, log *zap.Logger) error {
	ctx := context.Background()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	env, err := setup(ctx, config, log, false)
	if err != nil {
		return fmt.Errorf("preparing the pipeline: %w", err)
	}
	defer env.Close()

	prompts, err := env.prompts.ListPrompts(ctx, activeOnly)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tACTIVE")
	for _, p := range prompts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", p.ID, p.Name, p.Version, p.Active)
	}
	return w.Flush()
}
