package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/service"
)

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "enqueue <action> <entity>",
		Short: "Enqueue a mutation",
		Example: `  syncctl enqueue create bill --payload '{"total":1200}'
  syncctl enqueue delete product --payload '{"id":"p-9"}'`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.EnqueueRequest{
				Action: domain.Action(args[0]),
				Entity: domain.Entity(args[1]),
			}
			if payload != "" {
				req.Payload = json.RawMessage(payload)
			}
			// Fail locally with the same message the server would return.
			if err := req.Validate(); err != nil {
				return err
			}

			var rec domain.MutationRecord
			c := NewClient(rootOpts.Server, rootOpts.Timeout)
			if err := c.Do(cmd.Context(), http.MethodPost, "/api/v1/mutations", req, &rec); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), rootOpts.Format, rec, func(w io.Writer) {
				printf(w, "enqueued %s (%s %s)\n", rec.ID, rec.Action, rec.Entity)
			})
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "JSON payload")
	return cmd
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "pending",
		Short:        "Print the number of unsynced records",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]int
			c := NewClient(rootOpts.Server, rootOpts.Timeout)
			if err := c.Do(cmd.Context(), http.MethodGet, "/api/v1/mutations/pending", nil, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), rootOpts.Format, out, func(w io.Writer) {
				printf(w, "%d\n", out["pending"])
			})
		},
	}
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:          "snapshot",
		Short:        "List every record in the local log",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Data  []domain.MutationRecord `json:"data"`
				Total int                     `json:"total"`
			}
			c := NewClient(rootOpts.Server, rootOpts.Timeout)
			if err := c.Do(cmd.Context(), http.MethodGet, "/api/v1/mutations", nil, &out); err != nil {
				return err
			}

			if pendingOnly {
				kept := out.Data[:0]
				for _, r := range out.Data {
					if !r.Synced {
						kept = append(kept, r)
					}
				}
				out.Data = kept
				out.Total = len(kept)
			}

			return printResult(cmd.OutOrStdout(), rootOpts.Format, out, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				printf(tw, "ID\tACTION\tENTITY\tENQUEUED\tSYNCED\n")
				for _, r := range out.Data {
					printf(tw, "%s\t%s\t%s\t%s\t%s\n",
						r.ID, r.Action, r.Entity,
						time.UnixMilli(r.EnqueuedAt).UTC().Format(time.RFC3339),
						yesNo(r.Synced))
				}
				_ = tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only show unsynced records")
	return cmd
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "sync",
		Short:        "Request a sync pass",
		Long:         "Request a sync pass. Nothing starts while offline or while another pass is running.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]bool
			c := NewClient(rootOpts.Server, rootOpts.Timeout)
			if err := c.Do(cmd.Context(), http.MethodPost, "/api/v1/sync", nil, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), rootOpts.Format, out, func(w io.Writer) {
				if out["started"] {
					printf(w, "sync pass started\n")
				} else {
					printf(w, "no pass started (offline or already running)\n")
				}
			})
		},
	}
}

// NewConnectivityCommand creates the connectivity command.
func NewConnectivityCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "connectivity <online|offline>",
		Short:        "Report a connectivity change",
		Args:         cobra.ExactArgs(1),
		ValidArgs:    []string{"online", "offline"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reachable, err := parseReachable(args[0])
			if err != nil {
				return err
			}

			var out map[string]bool
			c := NewClient(rootOpts.Server, rootOpts.Timeout)
			body := map[string]bool{"reachable": reachable}
			if err := c.Do(cmd.Context(), http.MethodPost, "/api/v1/connectivity", body, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), rootOpts.Format, out, func(w io.Writer) {
				state := "offline"
				if out["reachable"] {
					state = "online"
				}
				if out["changed"] {
					printf(w, "now %s\n", state)
				} else {
					printf(w, "already %s\n", state)
				}
			})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Show pending count, connectivity and the last pass",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st service.Status
			c := NewClient(rootOpts.Server, rootOpts.Timeout)
			if err := c.Do(cmd.Context(), http.MethodGet, "/api/v1/status", nil, &st); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), rootOpts.Format, st, func(w io.Writer) {
				printf(w, "pending:     %d of %d\n", st.Pending, st.Total)
				printf(w, "online:      %s\n", yesNo(st.Online))
				printf(w, "in progress: %s\n", yesNo(st.InProgress))
				if lp := st.LastPass; lp != nil {
					printf(w, "last pass:   %s, %d/%d accepted, %d pruned, took %s\n",
						lp.Reason, lp.Accepted, lp.Attempted, lp.Pruned, lp.Duration)
				}
			})
		},
	}
}

func parseReachable(s string) (bool, error) {
	switch s {
	case "online", "up":
		return true, nil
	case "offline", "down":
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	return false, fmt.Errorf("invalid state %q: want online or offline", s)
}
