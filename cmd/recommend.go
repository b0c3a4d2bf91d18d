package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/filtering"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
)

const promptRules = "rules (no LLM)"

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate recommendations for a user and print them as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		log := newLogger()
		if err := runRecommend(cmd, log); err != nil {
			log.Fatal("recommending postings", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntP("user", "u", 0, "user id to recommend postings for")
	recommendCmd.Flags().IntP("resume", "r", 0, "résumé id. Default is the latest résumé of the user")
	recommendCmd.Flags().IntP("limit", "l", 0, "maximum number of recommendations. Default comes from recommend.default-limit")
	recommendCmd.Flags().IntP("prompt", "p", 0, "evaluator prompt id. Default is rule-based scoring")
	recommendCmd.Flags().Bool("choose-prompt", false, "pick the evaluator prompt interactively")
	recommendCmd.Flags().BoolP("include-seen", "f", false, "do not exclude postings recommended in recent generations")
	recommendCmd.Flags().Bool("save", false, "store the generation in the database")

	recommendCmd.MarkFlagRequired("user")
}

// runRecommend must not exit the process: env.Close releases the pool and the Redis client.
func runRecommend(cmd *cobra.Command, log *zap.Logger) error {
	ctx := context.Background()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	userID, _ := cmd.Flags().GetInt("user")
	resumeID, _ := cmd.Flags().GetInt("resume")
	limit, _ := cmd.Flags().GetInt("limit")
	promptID, _ := cmd.Flags().GetInt("prompt")
	choosePrompt, _ := cmd.Flags().GetBool("choose-prompt")
	includeSeen, _ := cmd.Flags().GetBool("include-seen")
	save, _ := cmd.Flags().GetBool("save")

	env, err := setup(ctx, config, log, includeSeen)
	if err != nil {
		return fmt.Errorf("preparing the pipeline: %w", err)
	}
	defer env.Close()

	for _, status := range filtering.Describe(env.filters) {
		log.Debug("filter status", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.Any("details", status.Details))
	}

	opts := recommend.Options{Limit: limit, ResumeID: resumeID}
	if promptID > 0 {
		opts.PromptID = &promptID
	}
	if choosePrompt {
		opts.PromptID, err = choose(ctx, env.prompts)
		if err != nil {
			return fmt.Errorf("choosing a prompt: %w", err)
		}
	}

	result, err := env.service.GetRecommendations(ctx, userID, opts)
	if err != nil {
		return fmt.Errorf("generating recommendations: %w", err)
	}

	if save {
		if env.store == nil {
			return errors.New("saving recommendations needs a database; fixture mode has none")
		}
		if err := env.store.SaveRecommendations(ctx, result.Recommendations); err != nil {
			return fmt.Errorf("saving recommendations: %w", err)
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result.Recommendations); err != nil {
		return fmt.Errorf("writing recommendations: %w", err)
	}
	return nil
}

// choose asks for an active prompt. Picking the rules entry returns nil.
func choose(ctx context.Context, prompts promptLister) (*int, error) {
	if prompts == nil {
		return nil, nil
	}
	active, err := prompts.ListPrompts(ctx, true)
	if err != nil {
		return nil, err
	}

	items := append([]string{promptRules}, promptLabels(active)...)
	selector := promptui.Select{
		Label: "Choose a prompt and press ENTER",
		Items: items,
	}
	index, _, err := selector.Run()
	if err != nil {
		return nil, err
	}
	if index == 0 {
		return nil, nil
	}
	return &active[index-1].ID, nil
}

func promptLabels(prompts []*jobs.Prompt) []string {
	labels := make([]string, len(prompts))
	for i, p := range prompts {
		labels[i] = p.Label()
	}
	return labels
}
