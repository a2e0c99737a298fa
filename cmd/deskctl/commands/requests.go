package commands

import (
	"fmt"
	"os"
	"strconv"

	"transportdesk/internal/client"
	"transportdesk/internal/domain/models"
	"transportdesk/internal/viewsync"

	"github.com/spf13/cobra"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid request id %q", raw)
	}
	return id, nil
}

// SubmitCmd creates the submit command
func SubmitCmd(app *AppContext) *cobra.Command {
	var in client.NewRequest

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new transport request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, token, err := app.Client.Create(app.Ctx, in)
			if err != nil {
				return explain("submit failed", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request %d submitted (%s).\n", created.ID, created.Status)
			fmt.Fprintf(out, "Keep this token to withdraw it while pending: %s\n", token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.UnitName, "unit", "", "Requesting unit")
	f.StringVar(&in.PersonnelName, "personnel", "", "Personnel full name")
	f.StringVar(&in.PhoneNumber, "phone", "", "Personnel phone number")
	f.StringVar(&in.MissionDate, "date", "", "Mission date (YYYY-MM-DD, default today)")
	f.StringVar(&in.MissionTime, "time", "", "Mission time")
	f.StringVar(&in.Destination, "destination", "", "Destination")
	f.StringVar(&in.Notes, "notes", "", "Notes")
	f.BoolVar(&in.WithWheelchair, "wheelchair", false, "Wheelchair needed")
	f.BoolVar(&in.WithStretcher, "stretcher", false, "Stretcher needed")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("personnel")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

// ListCmd creates the list command
func ListCmd(app *AppContext) *cobra.Command {
	var tabName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transport requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := viewsync.ParseTab(tabName)
			if err != nil {
				return err
			}
			list, err := app.Client.List(app.Ctx)
			if err != nil {
				return explain("list failed", err)
			}
			return renderTable(cmd.OutOrStdout(), tab.Apply(list))
		},
	}

	cmd.Flags().StringVarP(&tabName, "tab", "t", string(viewsync.TabAll), "all, pending, approved, rejected or history")
	return cmd
}

// ShowCmd creates the show command
func ShowCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transport request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := app.Client.Get(app.Ctx, id)
			if err != nil {
				return explain("show failed", err)
			}
			return renderDetail(cmd.OutOrStdout(), r)
		},
	}
}

// DecideCmd creates approve/reject style commands that set a fixed status
func DecideCmd(app *AppContext, use string, status models.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Mark a request %s (dispatcher)", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(cmd, app, args[0], string(status))
		},
	}
}

// SetStatusCmd creates the set-status command
func SetStatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <PENDING|APPROVED|REJECTED>",
		Short: "Set the status of a request (dispatcher)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(cmd, app, args[0], args[1])
		},
	}
}

func setStatus(cmd *cobra.Command, app *AppContext, rawID, rawStatus string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	status, ok := models.ParseStatus(rawStatus)
	if !ok {
		return fmt.Errorf("invalid status %q", rawStatus)
	}
	updated, err := app.Client.Transition(app.Ctx, id, status)
	if err != nil {
		return explain("status change failed", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Request %d is now %s.\n", updated.ID, updated.Status)
	return nil
}

// DeleteCmd creates the delete command
func DeleteCmd(app *AppContext) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a request (dispatcher), or withdraw your own pending request with --token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if token != "" {
				err = app.Client.Withdraw(app.Ctx, id, token)
			} else {
				err = app.Client.Delete(app.Ctx, id)
			}
			if err != nil {
				return explain("delete failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d deleted.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Requester token returned by submit")
	return cmd
}

// TripSheetCmd creates the trip-sheet command
func TripSheetCmd(app *AppContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "trip-sheet <id>",
		Short: "Download the driver trip sheet of an approved request (dispatcher)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pdf, filename, err := app.Client.TripSheet(app.Ctx, id)
			if err != nil {
				return explain("trip sheet failed", err)
			}
			if outPath == "" {
				outPath = filename
			}
			if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes).\n", outPath, len(pdf))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: server-provided name)")
	return cmd
}
