package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/placement-engine/internal/external"
	"github.com/spigell/placement-engine/internal/recommend"
	"github.com/spigell/placement-engine/internal/types"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const PromptExit = "exit"

var recomputeCmd = &cobra.Command{
	Use:   "recompute <candidate-id>...",
	Short: "Recompute and persist career scores",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, e *engine, logger *zap.Logger) {
			signal, _ := cmd.Flags().GetString("signal")

			for _, id := range args {
				if _, err := e.orchestrator.Candidate(ctx, id); err != nil {
					logger.Fatal("loading candidate", zap.String("candidate_id", id), zap.Error(err))
				}

				var (
					score *types.CareerScore
					err   error
				)
				if signal != "" {
					score, err = e.career.OnSignalChanged(ctx, id, signal)
				} else {
					score, err = e.career.Recompute(ctx, id)
				}
				if err != nil {
					logger.Fatal("recomputing career score", zap.String("candidate_id", id), zap.Error(err))
				}
				printJSON(score)
			}
		})
	},
}

var careerScoreCmd = &cobra.Command{
	Use:   "career-score <candidate-id>",
	Short: "Show the last persisted career score",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, e *engine, logger *zap.Logger) {
			score, err := e.db.GetCareerScore(ctx, args[0])
			if err != nil {
				logger.Fatal("reading career score", zap.Error(err))
			}
			if score == nil {
				logger.Info("no career score yet", zap.String("hint", "run the recompute command first"))
				return
			}
			printJSON(score)
		})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <candidate-id>",
	Short: "Rank visible catalog postings for a candidate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, e *engine, logger *zap.Logger) {
			role, _ := cmd.Flags().GetString("role")
			location, _ := cmd.Flags().GetString("location")
			skills, _ := cmd.Flags().GetStringSlice("skills")
			skip, _ := cmd.Flags().GetStringSlice("skip-filter")

			results, err := e.orchestrator.Recommend(ctx, args[0], recommend.Filters{
				Role:     role,
				Location: location,
				Skills:   skills,
				Skip:     skip,
			})
			if err != nil {
				logger.Fatal("recommending", zap.Error(err))
			}

			logger.Info("recommendations", zap.Int("count", len(results)))

			if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt || len(results) == 0 {
				printJSON(results)
				return
			}

			if err := browseRecommendations(results); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <candidate-id>",
	Short: "Search, score and persist external jobs for a candidate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, e *engine, logger *zap.Logger) {
			query, _ := cmd.Flags().GetString("query")
			location, _ := cmd.Flags().GetString("location")
			limit, _ := cmd.Flags().GetInt("limit")
			autoSuggest, _ := cmd.Flags().GetBool("auto-suggest")

			candidate, err := e.orchestrator.Candidate(ctx, args[0])
			if err != nil {
				logger.Fatal("loading candidate", zap.Error(err))
			}

			result, err := e.external.Search(ctx, candidate, external.Request{
				Query:       query,
				Location:    location,
				Limit:       limit,
				AutoSuggest: autoSuggest,
			})
			if err != nil {
				logger.Fatal("searching external jobs", zap.Error(err))
			}

			printJSON(result)
		})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <candidate-id> <posting-id|url>",
	Short: "Score one posting or external job for a candidate",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, e *engine, logger *zap.Logger) {
			result, err := e.orchestrator.ScoreMatch(ctx, args[0], args[1])
			if err != nil {
				logger.Fatal("scoring match", zap.Error(err))
			}
			printJSON(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd, careerScoreCmd, recommendCmd, searchCmd, matchCmd)

	recommendCmd.Flags().String("role", "", "only postings whose title contains this text")
	recommendCmd.Flags().String("location", "", "only postings in this location")
	recommendCmd.Flags().StringSlice("skills", nil, "only postings requiring any of these skills")
	recommendCmd.Flags().StringSlice("skip-filter", nil, "request filter steps to turn off (role, location, skills)")
	recommendCmd.Flags().BoolP("no-prompt", "y", false, "print the ranking as json instead of browsing it")

	recomputeCmd.Flags().String("signal", "", "name of the signal that changed, logged with the recompute")

	searchCmd.Flags().StringP("query", "q", "", "search text (derived from the profile when empty)")
	searchCmd.Flags().StringP("location", "l", "", "search location (defaults to the candidate location)")
	searchCmd.Flags().IntP("limit", "n", 0, "maximum results to return")
	searchCmd.Flags().Bool("auto-suggest", false, "ask the oracle for target roles when no query is given")
}

// withEngine runs fn with a wired engine and closes it afterwards.
func withEngine(fn func(ctx context.Context, e *engine, logger *zap.Logger)) {
	ctx := context.Background()

	logger, config := setup()

	e, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing the engine", zap.Error(err))
	}
	defer e.close()

	fn(ctx, e, logger)
}

func browseRecommendations(results []types.MatchResult[types.JobPosting]) error {
	items := make([]string, 0, len(results)+1)
	for _, r := range results {
		items = append(items, fmt.Sprintf("%s %3d %s / %s / %s",
			r.Subject.ID, r.MatchScore, r.Subject.Title, r.Subject.Company, r.Subject.Location,
		))
	}
	items = append(items, PromptExit)

	for {
		recommendationPrompt := promptui.Select{
			Label: "Choose a posting and press ENTER",
			Items: items,
			Size:  10,
		}

		_, selected, err := recommendationPrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptExit {
			return nil
		}

		postingID := strings.Split(selected, " ")[0]
		for _, r := range results {
			if r.Subject.ID == postingID {
				printJSON(r)
				break
			}
		}
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	// stdout is the only sink, nothing to do on failure
	_ = enc.Encode(v)
}
