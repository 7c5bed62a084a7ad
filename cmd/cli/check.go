package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/hamed0406/livestatus/internal/livesystem"
	"github.com/hamed0406/livestatus/internal/logging"
	"github.com/hamed0406/livestatus/internal/metrics"
	"github.com/hamed0406/livestatus/internal/notify"
	"github.com/hamed0406/livestatus/internal/transport"
)

var errServicesDown = errors.New("one or more services are down")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe both services once and print their cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err := logging.NewLogger(cfg.LogDir, logLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		panel := livesystem.NewPanel(transport.NewAPI(cfg), transport.NewRoot(cfg), logger, metrics.New())
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RenderWait)
		defer cancel()
		panel.Mount(context.WithoutCancel(ctx))
		_ = panel.Wait(ctx)
		cards := panel.Cards()
		panel.Unmount()

		if jsonOut {
			raw, err := json.Marshal(cards)
			if err != nil {
				return err
			}
			_, _ = os.Stdout.Write(pretty.Pretty(raw))
		} else {
			fmt.Println(cardView(cards.Profile))
			fmt.Println(cardView(cards.BFF))
		}

		title, text, ok := notify.DownReport(cards)
		if ok {
			return nil
		}
		if notifyDown {
			var n notify.Multi
			if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
				n = append(n, s)
			}
			if len(n) == 0 {
				logger.Warn("notify_disabled", zap.String("reason", "SLACK_WEBHOOK_URL empty"))
			} else if err := n.Send(cmd.Context(), title, text); err != nil {
				logger.Warn("notify_failed", zap.Error(err))
			}
		}
		return errServicesDown
	},
}
