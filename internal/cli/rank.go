package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vitrine-app/vitrine-go/internal/model"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

// Batch is the YAML document read by `vitrinectl rank`.
type Batch struct {
	Trending []string            `yaml:"trending"`
	At       string              `yaml:"at"`
	Items    []model.ContentItem `yaml:"items"`
}

var (
	rankFile     string
	rankTrending []string
	rankAt       string
	rankJSON     bool
)

// rankCmd ranks a YAML batch offline and prints the order with its breakdown.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a batch of posts from a YAML file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := loadBatch(rankFile)
		if err != nil {
			return err
		}

		at := rankAt
		if at == "" {
			at = batch.At
		}
		ranking := service.NewRankingService(service.DefaultSeasons)
		if at != "" {
			t, err := time.Parse(time.DateOnly, at)
			if err != nil {
				return fmt.Errorf("parse --at %q: %w", at, err)
			}
			ranking.WithClock(func() time.Time { return t })
		}

		trending := batch.Trending
		if cmd.Flags().Changed("trending") {
			trending = rankTrending
		}
		ranking.UpdateTrendingCategories(trending)

		ranked := ranking.Rank(batch.Items)
		stats := ranking.Stats(ranked)

		if rankJSON {
			return writeJSON(cmd.OutOrStdout(), model.FeedResponse{Items: ranked, Stats: stats, GeneratedAt: time.Now().UTC()})
		}
		return printRanking(cmd, ranking, ranked, stats)
	},
}

func loadBatch(path string) (*Batch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var batch Batch
	if err := yaml.Unmarshal(b, &batch); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return &batch, nil
}

func printRanking(cmd *cobra.Command, ranking *service.RankingService, ranked []model.RankedItem, stats *model.RankingStats) error {
	out := cmd.OutOrStdout()
	if season, ok := ranking.ActiveSeason(); ok {
		fmt.Fprintf(out, "season: %s (x%.2f)\n", season.Name, season.Multiplier)
	}
	if stats == nil {
		fmt.Fprintln(out, "no items")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tCATEGORY\tSCORE\tENGAGEMENT\tCONVERSION\tAFFILIATE\tTRENDING")
	for i, r := range ranked {
		f := r.RankingFactors
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			i+1, r.ID, r.Category, r.BoostScore, f.EngagementScore, f.ConversionScore, f.AffiliateScore, f.TrendingBonus)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d items, average %.2f, %d trending, categories: %v\n",
		stats.Count, stats.AverageScore, stats.TrendingCount, stats.Categories)
	return nil
}

func init() {
	rankCmd.Flags().StringVarP(&rankFile, "file", "f", "", "YAML batch file")
	rankCmd.Flags().StringSliceVar(&rankTrending, "trending", nil, "trending categories (overrides the file)")
	rankCmd.Flags().StringVar(&rankAt, "at", "", "evaluate seasons on this date (YYYY-MM-DD)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print the full ranking as JSON")
	_ = rankCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(rankCmd)
}
