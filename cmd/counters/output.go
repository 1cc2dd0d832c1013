package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/spf13/cobra"
)

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
}

func (a *app) printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printCounters(cmd *cobra.Command, list []counters.Counter) error {
	if a.jsonOutput {
		return a.printJSON(cmd, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No counters")
		return nil
	}

	w := newTable(cmd)
	fmt.Fprintln(w, "ID\tTITLE\tSTARTED\tVISIBILITY\tTAGS")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Title, formatDate(c.StartDate), visibility(c), tagNames(c.Tags))
	}
	return w.Flush()
}

func (a *app) printCounter(cmd *cobra.Command, c *counters.Counter) error {
	if a.jsonOutput {
		return a.printJSON(cmd, c)
	}

	w := newTable(cmd)
	fmt.Fprintf(w, "ID\t%s\n", c.ID)
	fmt.Fprintf(w, "Title\t%s\n", c.Title)
	if c.Description != "" {
		fmt.Fprintf(w, "Description\t%s\n", c.Description)
	}
	fmt.Fprintf(w, "Started\t%s\n", formatDate(c.StartDate))
	fmt.Fprintf(w, "Visibility\t%s\n", visibility(*c))
	if c.ArchivedAt != nil {
		fmt.Fprintf(w, "Archived\t%s\n", formatDate(*c.ArchivedAt))
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "Tags\t%s\n", tagNames(c.Tags))
	}
	if c.User != nil {
		fmt.Fprintf(w, "Owner\t%s\n", displayUser(c.User.Name, c.User.Email))
	}
	return w.Flush()
}

func visibility(c counters.Counter) string {
	switch {
	case c.IsArchived:
		return "archived"
	case c.IsPrivate:
		return "private"
	default:
		return "public"
	}
}

func tagNames(tags []counters.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func displayUser(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
