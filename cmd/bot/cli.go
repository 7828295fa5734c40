package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"UpkeepSentinel/internal/accounting"
	"UpkeepSentinel/internal/notifier"
	"UpkeepSentinel/internal/scheduler"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newStatusCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the owed amount and whose turn it is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return printStatus(cmd, a.manager)
		},
	}
}

func newRefreshCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the payment feeds once and show the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			rec := buildRecorder(a.cfg)
			defer rec.Close()
			sched := scheduler.NewScheduler(cmd.Context(), buildCollector(a.cfg), a.manager,
				&notifier.Dispatcher{Fallback: &notifier.StatusWriter{W: cmd.ErrOrStderr()}}, rec)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			out, err := sched.Refresh(ctx)
			if err != nil {
				return err
			}
			if out.Result.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "fetch failed: %v\n", out.Result.Err)
			}
			return printStatus(cmd, a.manager)
		},
	}
}

func newSetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <cost|name|anchor|override|mute> <value>",
		Short: "Change a setting",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			value := strings.Join(args[1:], " ")
			switch strings.ToLower(args[0]) {
			case "cost":
				err = a.manager.SetDailyCost(value)
			case "name":
				err = a.manager.SetCounterparty(value)
			case "anchor":
				err = a.manager.SetCycleAnchor(value)
			case "override":
				err = a.manager.SetOverride(value)
			case "mute":
				err = a.manager.SetMuted(value == "on" || value == "true" || value == "yes")
			default:
				return fmt.Errorf("unknown setting %q", args[0])
			}
			if err != nil {
				return err
			}
			return printStatus(cmd, a.manager)
		},
	}
}

func newAuthCmd(cfgPath *string) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API key",
	}
	auth.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the API key in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := readSecret(cmd, "API key: ")
			if err != nil {
				return err
			}
			if err := a.manager.SetCredential(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
			return nil
		},
	})
	return auth
}

func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printStatus(cmd *cobra.Command, mgr *accounting.Manager) error {
	st, err := mgr.Current(time.Now())
	if err != nil {
		return err
	}
	snap, err := mgr.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), notifier.PlainText(notifier.FormatStatus(st, snap)))
	return nil
}
