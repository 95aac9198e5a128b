package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creasty/defaults"
	"github.com/spf13/cobra"

	"github.com/isometry/groupops/internal/directory"
	"github.com/isometry/groupops/internal/engine"
	"github.com/isometry/groupops/internal/job"
	"github.com/isometry/groupops/internal/logging"
	"github.com/isometry/groupops/internal/report"
)

// errJobFailed signals a job that ran and reported an error envelope. The
// envelope is the user-facing output; main only maps it to exit code 1.
var errJobFailed = errors.New("job failed")

type runOptions struct {
	JobPath string
	Output  string
	DryRun  bool
	Execute bool

	Conn directory.ConnectionConfig
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run [job-file]",
		Short: "Execute one job description against the directory",
		Long: `Execute one job description (YAML or JSON) against the directory.

Reads the job from the given file, or from stdin when the file is "-".
Destructive operations run in dry-run mode unless the job or the
--execute flag says otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.JobPath = args[0]

			if err := validateRunOptions(cmd, &opts); err != nil {
				return err
			}

			return runJob(cmd, root, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "console", "Output format (console, json)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Preview the job without making changes")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "Apply changes even for destructive operations")

	cmd.Flags().StringVar(&opts.Conn.URL, "url", os.Getenv("GROUPOPS_URL"), "Directory URL, e.g. ldaps://dc01.example.com:636")
	cmd.Flags().StringVar(&opts.Conn.BaseDN, "base-dn", os.Getenv("GROUPOPS_BASE_DN"), "Base DN for all searches")
	cmd.Flags().DurationVar(&opts.Conn.Timeout, "timeout", 0, "Per-operation timeout")
	cmd.Flags().StringVar(&opts.Conn.Username, "username", os.Getenv("GROUPOPS_USERNAME"), "Bind identity (DN, UPN, or DOMAIN\\sam)")
	cmd.Flags().StringVar(&opts.Conn.Password, "password", os.Getenv("GROUPOPS_PASSWORD"), "Password for simple bind")
	cmd.Flags().StringVar(&opts.Conn.KerberosRealm, "krb-realm", os.Getenv("GROUPOPS_KRB_REALM"), "Kerberos realm for GSSAPI bind")
	cmd.Flags().StringVar(&opts.Conn.KerberosKeytab, "krb-keytab", "", "Path to Kerberos keytab file")
	cmd.Flags().StringVar(&opts.Conn.KerberosCCache, "krb-ccache", os.Getenv("KRB5CCNAME"), "Path to Kerberos credential cache")
	cmd.Flags().StringVar(&opts.Conn.KerberosConfig, "krb-config", "", "Path to krb5.conf")
	cmd.Flags().BoolVar(&opts.Conn.StartTLS, "start-tls", false, "Upgrade plain ldap:// connections with StartTLS")
	cmd.Flags().BoolVar(&opts.Conn.Insecure, "insecure", false, "Skip certificate verification")

	return cmd
}

func validateRunOptions(cmd *cobra.Command, opts *runOptions) error {
	switch strings.ToLower(opts.Output) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid output format %q (valid: console, json)", opts.Output)
	}

	if cmd.Flags().Changed("dry-run") && cmd.Flags().Changed("execute") {
		return fmt.Errorf("--dry-run and --execute are mutually exclusive")
	}

	if opts.Conn.URL == "" {
		return fmt.Errorf("directory URL is required (--url or GROUPOPS_URL)")
	}
	if opts.Conn.BaseDN == "" {
		return fmt.Errorf("base DN is required (--base-dn or GROUPOPS_BASE_DN)")
	}

	return nil
}

func runJob(cmd *cobra.Command, root *rootFlags, opts *runOptions) error {
	log, err := logging.New(logging.Options{Level: root.effectiveLevel(), Console: true})
	if err != nil {
		return err
	}

	j, err := job.LoadFile(opts.JobPath)
	if err != nil {
		return err
	}

	// CLI dry-run flags override the job description.
	switch {
	case cmd.Flags().Changed("dry-run"):
		v := opts.DryRun
		j.DryRun = &v
	case cmd.Flags().Changed("execute"):
		v := !opts.Execute
		j.DryRun = &v
	}

	if err := defaults.Set(&opts.Conn); err != nil {
		return fmt.Errorf("failed to apply connection defaults: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := directory.NewClient(&opts.Conn, log)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	gateway := directory.NewService(client, opts.Conn.BaseDN, log)
	gateway.SetTimeout(opts.Conn.Timeout)

	var emitter report.Emitter
	if strings.EqualFold(opts.Output, "json") {
		emitter = report.NewJSONLinesEmitter(os.Stdout)
	} else {
		emitter = report.NewConsoleEmitter(os.Stdout)
	}

	result := engine.NewDriver(gateway, emitter, log).Run(ctx, j)
	if result.ExitCode() != 0 {
		return errJobFailed
	}

	return nil
}
