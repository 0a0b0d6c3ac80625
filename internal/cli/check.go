package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vitrine-app/vitrine-go/internal/model"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

var (
	postUser     string
	postHTML     bool
	postRedisURL string
)

// checkLinkCmd inspects one URL without recording anything.
var checkLinkCmd = &cobra.Command{
	Use:   "check-link <url>",
	Short: "Check whether a URL may be posted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		guard := service.NewLinkGuardService(service.NewMemoryLedger(), nil, newLogger())
		res := guard.ValidateLink(args[0])
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.IsValid {
			return fmt.Errorf("link rejected: %s", res.Reason)
		}
		return nil
	},
}

// checkPostCmd validates a post body on behalf of a user. Without --redis-url
// violations live only for this process.
var checkPostCmd = &cobra.Command{
	Use:   "check-post <text|->",
	Short: "Validate every link in a post and apply the strike policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]
		if text == "-" {
			b, err := readAll(cmd)
			if err != nil {
				return err
			}
			text = b
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		ledger, closeLedger, err := openLedger(ctx, postRedisURL)
		if err != nil {
			return err
		}
		defer closeLedger()

		guard := service.NewLinkGuardService(ledger, nil, newLogger())

		var res model.ContentValidation
		if postHTML {
			res, err = guard.ValidatePostHTML(ctx, text, postUser)
		} else {
			res, err = guard.ValidatePostContent(ctx, text, postUser)
		}
		if err != nil {
			return err
		}

		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.IsValid {
			return fmt.Errorf("post rejected: %s", res.Message)
		}
		return nil
	},
}

func openLedger(ctx context.Context, redisURL string) (service.ViolationLedger, func(), error) {
	if redisURL == "" {
		return service.NewMemoryLedger(), func() {}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return service.NewRedisLedger(rdb, service.ViolationWindow), func() { _ = rdb.Close() }, nil
}

func readAll(cmd *cobra.Command) (string, error) {
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func init() {
	checkPostCmd.Flags().StringVarP(&postUser, "user", "u", "cli", "user ID the post is submitted as")
	checkPostCmd.Flags().BoolVar(&postHTML, "html", false, "treat the post as HTML and scan anchor hrefs")
	checkPostCmd.Flags().StringVar(&postRedisURL, "redis-url", "", "use the shared Redis violation ledger")

	rootCmd.AddCommand(checkLinkCmd, checkPostCmd)
}
