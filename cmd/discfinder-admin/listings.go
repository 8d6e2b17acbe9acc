package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"text/tabwriter"
	"time"

	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/domain/model"
)

func runListStores(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("list-stores", flag.ContinueOnError)
	timeout := fs.Duration("timeout", defaultCommandTimeout, "overall command timeout")
	search := fs.String("search", "", "match name, city, or address")
	state := fs.String("state", "", "filter by state")
	verifiedOnly := fs.Bool("verified", false, "only verified stores")
	limit := fs.Int("limit", 50, "maximum rows to print")
	skip := fs.Int("skip", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := model.StoresListOptions{
		Skip:  *skip,
		Limit: *limit,
	}
	if *search != "" {
		opts.Search = search
	}
	if *state != "" {
		opts.State = state
	}
	if *verifiedOnly {
		v := true
		opts.Verified = &v
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		stores, err := data.NewStoreRepo(db).ListWithOptions(ctx, opts)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if err := writef(tw, "ID\tNAME\tCITY\tSTATE\tEMAIL\tSOURCE\tVERIFIED\n"); err != nil {
			return err
		}
		for _, store := range stores {
			if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
				store.ID,
				store.Name,
				strValue(store.City),
				strValue(store.State),
				strValue(store.Email),
				store.Source,
				store.Verified,
			); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("list-jobs", flag.ContinueOnError)
	timeout := fs.Duration("timeout", defaultCommandTimeout, "overall command timeout")
	limit := fs.Int("limit", 20, "maximum rows to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		jobs, err := data.NewJobRepo(db).ListRecent(ctx, *limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if err := writef(tw, "ID\tTYPE\tSTATUS\tSTORES\tCREDITS\tCREATED\tCOMPLETED\n"); err != nil {
			return err
		}
		for _, job := range jobs {
			completed := "-"
			if job.CompletedAt != nil {
				completed = job.CompletedAt.Format(time.RFC3339)
			}
			if err := writef(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				job.ID,
				job.Type,
				job.Status,
				job.StoresFound,
				job.CreditsUsed,
				job.CreatedAt.Format(time.RFC3339),
				completed,
			); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

func runStats(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	timeout := fs.Duration("timeout", defaultCommandTimeout, "overall command timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		counts, err := data.NewStoreRepo(db).Counts(ctx)
		if err != nil {
			return err
		}
		active, err := data.NewJobRepo(db).CountActive(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		rows := []struct {
			label string
			value int
		}{
			{"total stores", counts.Total},
			{"verified stores", counts.Verified},
			{"stores with emails", counts.WithEmails},
			{"active jobs", active},
		}
		for _, row := range rows {
			if err := writef(tw, "%s\t%d\n", row.label, row.value); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

func strValue(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
