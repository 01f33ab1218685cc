package cmd

import (
	"context"

	"github.com/spigell/placement-engine/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the internal job catalog",
}

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a posting to the catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		withEngine(func(ctx context.Context, e *engine, logger *zap.Logger) {
			flags := cmd.Flags()
			title, _ := flags.GetString("title")
			company, _ := flags.GetString("company")
			description, _ := flags.GetString("description")
			location, _ := flags.GetString("location")
			tenant, _ := flags.GetString("tenant")
			status, _ := flags.GetString("status")
			verified, _ := flags.GetBool("verified")
			skills, _ := flags.GetStringSlice("skills")

			posting := &types.JobPosting{
				Title:          title,
				Company:        company,
				Description:    description,
				Location:       location,
				TenantID:       tenant,
				Status:         types.ParsePostingStatus(status),
				PosterTrust:    types.TrustUnverified,
				RequiredSkills: skills,
			}
			if verified {
				posting.PosterTrust = types.TrustVerified
			}

			if err := e.db.CreateJobPosting(ctx, posting); err != nil {
				logger.Fatal("adding posting", zap.Error(err))
			}

			logger.Info("posting added", zap.String("posting_id", posting.ID), zap.String("status", string(posting.Status)))
			printJSON(posting)
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogAddCmd)

	flags := catalogAddCmd.Flags()
	flags.String("title", "", "posting title")
	flags.String("company", "", "company name")
	flags.String("description", "", "posting description")
	flags.String("location", "", "posting location")
	flags.String("tenant", "", "owning tenant, empty for a posting open to every tenant")
	flags.String("status", string(types.StatusPending), "initial status: pending, approved or active")
	flags.Bool("verified", false, "the poster is verified")
	flags.StringSlice("skills", nil, "required skills")

	catalogAddCmd.MarkFlagRequired("title")
	catalogAddCmd.MarkFlagRequired("company")
}
