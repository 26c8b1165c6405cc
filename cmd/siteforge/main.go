// Package main is the entry point for the siteforge CLI.
//
// siteforge turns a built web application into a live HTTPS site on its own
// domain: S3 website hosting, an ACM certificate, a CloudFront distribution
// and Route 53 DNS, plus domain search and registration at GoDaddy, DNSimple
// or Route 53 Domains.
//
// Commands: init, doctor, pipeline, deploy, domain, contact, cert, cdn, dns.
//
// For detailed usage information, run:
//
//	siteforge --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/siteforge/cmd/siteforge/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
