package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"transportdesk/internal/domain/models"
)

func renderTable(w io.Writer, list []models.TransportRequest) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No requests.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDATE\tTIME\tUNIT\tPERSONNEL\tPHONE\tDESTINATION\tEQUIPMENT")
	for _, r := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.MissionDate, dash(r.MissionTime), r.UnitName, r.PersonnelName,
			r.PhoneNumber, dash(r.Destination), equipment(r))
	}
	return tw.Flush()
}

func renderDetail(w io.Writer, r models.TransportRequest) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\n", r.ID)
	fmt.Fprintf(tw, "Status\t%s\n", r.Status)
	fmt.Fprintf(tw, "Unit\t%s\n", r.UnitName)
	fmt.Fprintf(tw, "Personnel\t%s\n", r.PersonnelName)
	fmt.Fprintf(tw, "Phone\t%s\n", r.PhoneNumber)
	fmt.Fprintf(tw, "Mission\t%s %s\n", r.MissionDate, r.MissionTime)
	fmt.Fprintf(tw, "Destination\t%s\n", dash(r.Destination))
	fmt.Fprintf(tw, "Equipment\t%s\n", equipment(r))
	fmt.Fprintf(tw, "Notes\t%s\n", dash(r.Notes))
	fmt.Fprintf(tw, "Created\t%s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "Updated\t%s\n", r.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return tw.Flush()
}

func equipment(r models.TransportRequest) string {
	var items []string
	if r.WithWheelchair {
		items = append(items, "wheelchair")
	}
	if r.WithStretcher {
		items = append(items, "stretcher")
	}
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
