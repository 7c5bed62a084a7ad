package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check the environment before starting the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ok := func(msg string) { fmt.Println(styleOK.Render("✔"), msg) }
		warn := func(msg string) { fmt.Fprintln(os.Stderr, styleWarn.Render("⚠"), msg) }
		fail := func(msg string) { fmt.Fprintln(os.Stderr, styleFailed.Render("✖"), msg) }

		err := cfg.Validate()
		for _, e := range multierr.Errors(err) {
			fail(e.Error())
		}
		for _, w := range cfg.Warnings() {
			warn(w)
		}
		if v := os.Getenv("METRICS_API_KEYS"); strings.Contains(v, " ") {
			warn("METRICS_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
		if err != nil {
			return fmt.Errorf("preflight failed with %d problem(s)", len(multierr.Errors(err)))
		}

		ok("ADDR=" + cfg.Addr)
		ok("UPSTREAM_ORIGIN=" + cfg.UpstreamOrigin)
		ok("API_BASE=" + cfg.APIBase)
		ok(fmt.Sprintf("PROBE_TIMEOUT_MS=%d", cfg.ProbeTimeout.Milliseconds()))
		ok("preflight passed")
		return nil
	},
}
