package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	"github.com/riskibarqy/nfl-analytics/internal/infrastructure/export"
	"github.com/riskibarqy/nfl-analytics/internal/usecase"
)

const (
	extractHighNullPct  = 50
	validateHighNullPct = 10
)

func extractCmd(s *session) *cobra.Command {
	var (
		workers int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "extract [SEASON...]",
		Short: "Extract teams, players, schedules and every seasonal dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "extract", func(ctx context.Context) error {
				seasons, err := parseInts(args)
				if err != nil {
					return err
				}
				if len(seasons) == 0 {
					seasons = s.app.Config.DefaultSeasons
				}

				result, err := s.app.Extraction.ExtractAll(ctx, usecase.ExtractInput{Seasons: seasons, Workers: workers})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, result)
				}

				tables := sortedKeys(result.Tables)
				total := 0
				s.out.Fprintln(w, "\n=== Extraction Results ===")
				for _, table := range tables {
					s.out.Fprintf(w, "%s: %d records\n", table, result.Tables[table])
					total += result.Tables[table]
				}
				s.out.Fprintf(w, "\nTotal records extracted: %d\n", total)
				for _, unit := range result.Units {
					if unit.Status == usecase.UnitStatusFailed {
						fmt.Fprintf(w, "Failed: %s %v: %s\n", unit.Table, unit.Seasons, unit.Message)
					}
				}

				s.out.Fprintln(w, "\n=== Data Quality Validation ===")
				for _, table := range tables {
					s.printTableSummary(ctx, w, table, extractHighNullPct)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent workers (default: NFL_MAX_WORKERS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run result as JSON")
	return cmd
}

func refreshSeasonCmd(s *session) *cobra.Command {
	var (
		dataTypes []string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "refresh-season SEASON",
		Short: "Re-ingest seasonal datasets for one season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "refresh-season", func(ctx context.Context) error {
				season, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid season %q: %w", args[0], err)
				}

				results, err := s.app.Extraction.RefreshSeason(ctx, season, dataTypes)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, results)
				}

				tables := sortedKeys(results)
				fmt.Fprintf(w, "\n=== Season %d Refresh Results ===\n", season)
				for _, table := range tables {
					s.out.Fprintf(w, "%s: %d records\n", table, results[table])
				}
				s.out.Fprintln(w, "\n=== Data Quality After Refresh ===")
				for _, table := range tables {
					s.printTableSummary(ctx, w, table, -1)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&dataTypes, "data-types", nil, "Datasets to refresh: pbp_data, weekly_stats, seasonal_stats, rosters, injuries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the per-table record counts as JSON")
	return cmd
}

func refreshWeekCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-week SEASON WEEK",
		Short: "Replace one week of weekly stats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "refresh-week", func(ctx context.Context) error {
				values, err := parseInts(args)
				if err != nil {
					return err
				}
				records, err := s.app.Extraction.RefreshWeek(ctx, values[0], values[1])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				s.out.Fprintf(w, "weekly_stats: %d records", records)
				fmt.Fprintf(w, " for season %d week %d\n", values[0], values[1])
				return nil
			})
		},
	}
}

func refreshRawECRCmd(s *session) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "refresh-raw-ecr",
		Short: "Rebuild raw_ecr_rankings from FantasyPros exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "refresh-raw-ecr", func(ctx context.Context) error {
				result, err := s.app.ECR.Refresh(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, result)
				}

				s.out.Fprintln(w, "\n=== ECR Refresh Results ===")
				s.out.Fprintf(w, "Total records: %d\n", result.TotalRecords)
				s.out.Fprintf(w, "Processed files: %d\n", result.ProcessedFiles)
				s.out.Fprintf(w, "Failed files: %d\n", result.FailedFiles)

				v := result.Verification
				if len(v.YearCoverage) > 0 {
					s.out.Fprintln(w, "\n=== Year Coverage ===")
					for _, year := range v.YearCoverage {
						fmt.Fprintf(w, "%d: ", year.Year)
						s.out.Fprintf(w, "%d total (%d pre-preseason, %d preseason)\n",
							year.TotalRecords, year.BeforePreseasonRecords, year.AfterPreseasonRecords)
					}
				}
				s.out.Fprintln(w, "\n=== Data Quality ===")
				fmt.Fprintf(w, "Year range: %d - %d\n", v.Quality.MinYear, v.Quality.MaxYear)
				s.out.Fprintf(w, "Unique years: %d\n", v.Quality.UniqueYears)
				s.out.Fprintf(w, "Years with pre-preseason data: %d\n", v.Quality.YearsWithPrePreseason)
				s.out.Fprintf(w, "Years with preseason data: %d\n", v.Quality.YearsWithPreseason)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the refresh result as JSON")
	return cmd
}

func validateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Print record counts, season coverage and per-table quality",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "validate", func(ctx context.Context) error {
				stats, err := s.app.Quality.DatabaseStats(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				s.out.Fprintln(w, "\n=== Database Overview ===")
				s.out.Fprintf(w, "Tables: %d\n", len(stats.Tables))

				s.out.Fprintln(w, "\n=== Record Counts ===")
				for _, table := range sortedKeys(stats.RecordCounts) {
					s.out.Fprintf(w, "%s: %d records\n", table, stats.RecordCounts[table])
				}

				s.out.Fprintln(w, "\n=== Season Coverage ===")
				for _, table := range sortedKeys(stats.SeasonCoverage) {
					if seasons := stats.SeasonCoverage[table]; len(seasons) > 0 {
						fmt.Fprintf(w, "%s: %v\n", table, seasons)
					}
				}

				s.out.Fprintln(w, "\n=== Data Quality Validation ===")
				for _, table := range stats.Tables {
					if table == "data_refresh_log" {
						continue
					}
					report, err := s.app.Quality.ValidateTable(ctx, table)
					if err != nil {
						s.logger.WarnContext(ctx, "validate table failed", "table", table, "error", err)
						continue
					}
					s.out.Fprintf(w, "\n%s:\n", strings.ToUpper(table))
					s.out.Fprintf(w, "  Rows: %d\n", report.RowCount)
					s.out.Fprintf(w, "  Columns: %d\n", report.ColumnCount)
					if report.Duplicates != nil {
						s.out.Fprintf(w, "  Duplicates: %d\n", *report.Duplicates)
					}
					if high := usecase.HighNullColumns(report, validateHighNullPct); len(high) > 0 {
						labels := make([]string, 0, len(high))
						for _, col := range high {
							labels = append(labels, fmt.Sprintf("%s (%.1f%%)", col.Column, col.NullPct))
						}
						s.out.Fprintf(w, "  High NULL columns: %s\n", strings.Join(labels, ", "))
					}
				}
				return nil
			})
		},
	}
}

func schemaCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [TABLE]",
		Short: "Show stored columns and types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "schema", func(ctx context.Context) error {
				tables := args
				if len(tables) == 0 {
					all, err := s.app.Quality.ListTables(ctx)
					if err != nil {
						return err
					}
					tables = all
				}

				w := cmd.OutOrStdout()
				fmt.Fprintln(w, "\n=== Database Schema ===")
				for _, table := range tables {
					fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(table))
					columns, err := s.app.Quality.Describe(ctx, table)
					if err != nil {
						fmt.Fprintf(w, "  Error getting schema: %v\n", err)
						continue
					}
					for _, col := range columns {
						fmt.Fprintf(w, "  %s: %s\n", col.Name, col.DataType)
					}
				}
				return nil
			})
		},
	}
}

func queryCmd(s *session) *cobra.Command {
	var sqlText, file, output string
	cmd := &cobra.Command{
		Use:   "query (--sql S | --file F)",
		Short: "Run a read-only SQL query and print or save the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "query", func(ctx context.Context) error {
				if file != "" {
					raw, err := os.ReadFile(file)
					if err != nil {
						return fmt.Errorf("read sql file: %w", err)
					}
					sqlText = string(raw)
				}

				result, err := s.app.Quality.Query(ctx, sqlText)
				if err != nil {
					return err
				}
				if output != "" {
					if err := export.Write(output, result); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", output)
					return nil
				}
				return export.Table(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVarP(&sqlText, "sql", "s", "", "SQL query to execute")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File containing the SQL query")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save results to .csv, .json or .parquet")
	cmd.MarkFlagsMutuallyExclusive("sql", "file")
	cmd.MarkFlagsOneRequired("sql", "file")
	return cmd
}

func lastRefreshCmd(s *session) *cobra.Command {
	var week int
	cmd := &cobra.Command{
		Use:   "last-refresh TABLE SEASON",
		Short: "Show the latest successful refresh of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "last-refresh", func(ctx context.Context) error {
				season, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid season %q: %w", args[1], err)
				}
				var weekPtr *int
				if cmd.Flags().Changed("week") {
					weekPtr = &week
				}

				at, err := s.app.Ledger.LastSuccess(ctx, args[0], season, weekPtr)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if at == nil {
					fmt.Fprintf(w, "%s season %d: never refreshed\n", args[0], season)
					return nil
				}
				fmt.Fprintf(w, "%s season %d: %s\n", args[0], season, at.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "Restrict to one week")
	return cmd
}

func historyCmd(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history TABLE",
		Short: "List recent ledger entries for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "history", func(ctx context.Context) error {
				entries, err := s.app.Ledger.History(ctx, args[0], limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(w, "no refresh history for %s\n", args[0])
					return nil
				}
				for _, e := range entries {
					fmt.Fprintln(w, formatLedgerEntry(e))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	return cmd
}

func createIndexesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "create-indexes",
		Short: "Create analytics indexes on existing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), "create-indexes", func(ctx context.Context) error {
				created, err := s.app.Tables.EnsureIndexes(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexes applied: %d\n", created)
				return nil
			})
		},
	}
}

// printTableSummary prints rows and columns, plus columns above the null
// threshold when it is >= 0.
func (s *session) printTableSummary(ctx context.Context, w io.Writer, table string, highNullPct float64) {
	report, err := s.app.Quality.ValidateTable(ctx, table)
	if err != nil {
		s.logger.WarnContext(ctx, "validate table failed", "table", table, "error", err)
		return
	}
	s.out.Fprintf(w, "%s: %d rows, %d columns\n", table, report.RowCount, report.ColumnCount)
	if highNullPct < 0 {
		return
	}
	if high := usecase.HighNullColumns(report, highNullPct); len(high) > 0 {
		names := make([]string, 0, len(high))
		for _, col := range high {
			names = append(names, col.Column)
		}
		s.out.Fprintf(w, "  High NULL columns: %s\n", strings.Join(names, ", "))
	}
}

func formatLedgerEntry(e refreshlog.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s season=%d", e.ID, e.TableName, e.Season)
	if e.Week != nil {
		fmt.Fprintf(&b, " week=%d", *e.Week)
	}
	fmt.Fprintf(&b, " type=%s %s records=%d at=%s",
		e.SeasonType, e.Status, e.RecordsProcessed, e.RefreshDate.Format("2006-01-02 15:04:05"))
	if e.ErrorMessage != nil {
		fmt.Fprintf(&b, " error=%q", *e.ErrorMessage)
	}
	return b.String()
}

func printJSON(w io.Writer, v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		v, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", arg, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
