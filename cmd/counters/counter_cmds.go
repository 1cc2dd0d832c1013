package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/jrsteele09/go-counter-client/internal/utils"
	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your counters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mine, err := a.counters.Mine(cmd.Context(), archived)
			if err != nil {
				return err
			}
			return a.printCounters(cmd, mine)
		},
	}
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "List archived counters instead of active ones")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one of your counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.counters.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printCounter(cmd, c)
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var (
		in    counters.CreateCounterInput
		start string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.StartDate = time.Now()
			if start != "" {
				t, err := parseStart(start)
				if err != nil {
					return err
				}
				in.StartDate = t
			}
			c, err := a.counters.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printCounter(cmd, c)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&in.Title, "title", "t", "", "Counter title")
	flags.StringVarP(&in.Description, "description", "d", "", "Counter description")
	flags.StringVarP(&start, "start", "s", "", "Start date, RFC 3339 or YYYY-MM-DD (default now)")
	flags.BoolVarP(&in.IsPrivate, "private", "p", false, "Hide the counter from the public listing")
	flags.StringSliceVar(&in.TagIDs, "tag", nil, "Tag id to attach (repeatable)")
	cobra.CheckErr(cmd.MarkFlagRequired("title"))
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		title, description, start string
		private                   bool
		tagIDs                    []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a counter",
		Long:  "Change fields of a counter. Only the flags given are sent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var in counters.UpdateCounterInput
			if flags.Changed("title") {
				in.Title = utils.Ptr(title)
			}
			if flags.Changed("description") {
				in.Description = utils.Ptr(description)
			}
			if flags.Changed("start") {
				t, err := parseStart(start)
				if err != nil {
					return err
				}
				in.StartDate = utils.Ptr(t)
			}
			if flags.Changed("private") {
				in.IsPrivate = utils.Ptr(private)
			}
			if flags.Changed("tag") {
				in.TagIDs = utils.Ptr(tagIDs)
			}

			c, err := a.counters.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return a.printCounter(cmd, c)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&title, "title", "t", "", "New title")
	flags.StringVarP(&description, "description", "d", "", "New description")
	flags.StringVarP(&start, "start", "s", "", "New start date, RFC 3339 or YYYY-MM-DD")
	flags.BoolVarP(&private, "private", "p", false, "Make the counter private (--private=false to publish)")
	flags.StringSliceVar(&tagIDs, "tag", nil, "Replace the tags with these ids (repeatable)")
	return cmd
}

func (a *app) archiveCmd(archive bool) *cobra.Command {
	use, short := "archive <id>", "Archive a counter"
	if !archive {
		use, short = "unarchive <id>", "Restore an archived counter"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call := a.counters.Archive
			if !archive {
				call = a.counters.Unarchive
			}
			c, err := call(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printCounter(cmd, c)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a counter",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.counters.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if !a.jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			}
			return nil
		},
	}
}

func (a *app) publicCmd() *cobra.Command {
	var q counters.PublicQuery
	cmd := &cobra.Command{
		Use:   "public",
		Short: "Browse public counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.counters.ListPublic(cmd.Context(), q)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, page)
			}
			if err := a.printCounters(cmd, page.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d counters)\n", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&q.Page, "page", 0, "Page number, starting at 1")
	flags.IntVar(&q.Limit, "limit", 0, "Counters per page")
	flags.StringVar(&q.SortBy, "sort-by", "", "Field to sort by (e.g. startDate, createdAt, title)")
	flags.StringVar(&q.SortOrder, "sort-order", "", "asc or desc")
	flags.StringVar(&q.Search, "search", "", "Match titles and descriptions")
	flags.StringSliceVar(&q.Tags, "tag", nil, "Only counters with this tag name (repeatable)")
	return cmd
}

func (a *app) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the available tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := a.counters.Tags(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, tags)
			}
			w := newTable(cmd)
			fmt.Fprintln(w, "ID\tNAME")
			for _, t := range tags {
				fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
			}
			return w.Flush()
		},
	}
}

// parseStart accepts an RFC 3339 timestamp or a local calendar date.
func parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: start %q is not RFC 3339 or YYYY-MM-DD", errors.ErrInvalidArgument, s)
}
