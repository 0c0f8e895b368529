package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/poswatch/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded change events",
	Long: `Query and display change events from the SQLite event journal.

Subcommands:
  event  - Get details of a specific change event by ID
  today  - List events detected today
  day    - List events detected on a specific day

Examples:
  poswatch journal event <event-id>
  poswatch journal today
  poswatch journal day 2026-08-23`,
}

var journalEventCmd = &cobra.Command{
	Use:   "event <event-id>",
	Short: "Get details of a specific change event",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEvent,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List events detected today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List events detected on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalEventCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./poswatch.sqlite", "path to SQLite event journal")
}

func runJournalEvent(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetEvent(args[0])
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}

	fmt.Println(journal.FormatEventOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	start, end, err := dayBounds(loc, time.Now().In(loc).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListEventsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}

	fmt.Println(journal.FormatEventsOrg(recs))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListEventsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}

	fmt.Println(journal.FormatEventsOrg(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
