package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/ats-console/pkg/backend"
)

type globalFlags struct {
	apiURL  string
	orgID   string
	userID  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "atsctl",
		Short:         "Query the hiring platform API the way the admin console does",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", os.Getenv("API_URL"), "platform API base URL (API_URL)")
	pf.StringVar(&flags.orgID, "org", os.Getenv("ATS_ORG_ID"), "organization id (ATS_ORG_ID)")
	pf.StringVar(&flags.userID, "user", os.Getenv("ATS_USER_ID"), "user id (ATS_USER_ID)")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "per-request timeout")

	cmd.AddCommand(newMeCmd(flags))
	cmd.AddCommand(newUXCmd(flags))
	cmd.AddCommand(newReportCmd(flags))
	return cmd
}

// client builds an identity-bound backend client from the global flags.
func (f *globalFlags) client() (*backend.Client, error) {
	if f.apiURL == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--api-url or API_URL is required"))
	}
	c, err := backend.New(f.apiURL, backend.WithTimeout(f.timeout))
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return c.WithIdentity(f.orgID, f.userID), nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
