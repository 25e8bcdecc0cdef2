package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/freightdesk/console/internal/cli/config"
	"github.com/freightdesk/console/internal/livelocation"
)

// NewTrackCmd creates the track command
func NewTrackCmd() *cobra.Command {
	var envAlias, username, password, transporterID, fixFile string
	var interval time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Report a transporter's live location until interrupted",
		Long: `Signs in, then reads the device's GPS fix from a JSON file and reports it
to the marketplace backend on a fixed interval. Press Ctrl+C to stop.

Defaults for --transporter, --fix-file and --interval are read from the
"tracking" section of freightdesk.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectConfig, err := config.LoadFromCurrentDir()
			if err == nil && projectConfig.Tracking != nil {
				t := projectConfig.Tracking
				if transporterID == "" {
					transporterID = t.TransporterID
				}
				if fixFile == "" {
					fixFile = t.FixFile
				}
				if !cmd.Flags().Changed("interval") && t.Interval != "" {
					if interval, err = time.ParseDuration(t.Interval); err != nil {
						return fmt.Errorf("invalid tracking interval %q: %w", t.Interval, err)
					}
				}
			}
			if transporterID == "" || fixFile == "" {
				return fmt.Errorf("--transporter and --fix-file are required")
			}

			env, err := getEnvironment(envAlias)
			if err != nil {
				return err
			}

			username, password, err := readCredentials(username, password)
			if err != nil {
				return err
			}

			log := newLogger(verbose)
			client := newBackendClient(env)

			m, sess, err := signIn(cmd.Context(), client, username, password, 250*time.Millisecond, log)
			if err != nil {
				return fmt.Errorf("%s: %w", describeLoginFailure(err), err)
			}
			defer m.End(sess.ID)

			token, _ := sess.Hook.Refresh()
			actor, err := client.Actor(token)
			if err != nil {
				return err
			}

			tracker := livelocation.NewTracker(&livelocation.FileLocator{Path: fixFile, TransporterID: transporterID}, actor, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Reporting live location for %s every %s (Ctrl+C to stop)\n", transporterID, interval)
			return runTracker(ctx, tracker, interval)
		},
	}

	cmd.Flags().StringVar(&envAlias, "env", "", "Environment alias from freightdesk.json")
	cmd.Flags().StringVar(&username, "username", "", "Username (or set FREIGHTDESK_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set FREIGHTDESK_PASSWORD)")
	cmd.Flags().StringVar(&transporterID, "transporter", "", "Transporter ID to report for")
	cmd.Flags().StringVar(&fixFile, "fix-file", "", "JSON file holding the current GPS fix")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Reporting interval")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every report")

	return cmd
}

// runTracker runs tracker until ctx is done
func runTracker(ctx context.Context, tracker *livelocation.Tracker, interval time.Duration) error {
	if err := tracker.Start(interval); err != nil {
		return err
	}
	<-ctx.Done()
	tracker.Stop()
	fmt.Println("Stopped")
	return nil
}
