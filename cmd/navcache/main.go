// Copyright 2026 Fundwatch Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	navcache "github.com/fundwatch/navcache"
	"github.com/fundwatch/navcache/bulletin"
	"github.com/fundwatch/navcache/core"
	"github.com/fundwatch/navcache/search"
	"github.com/fundwatch/navcache/storage"
)

func main() {
	app := &cli.App{
		Name:  "navcache",
		Usage: "Local cache and search index over daily mutual fund NAV bulletins",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Fetch and publish the NAV bulletin for a date",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "date",
						Usage: "Bulletin date (DD-Mon-YYYY), defaults to today",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Bulletin download URL",
						Value: bulletin.DefaultBaseURL,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "HTTP fetch timeout",
						Value: 30 * time.Second,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the most recent ingestion run",
				Action: statusCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:   "funds",
				Usage:  "List scheme names from the published snapshot",
				Action: fundsCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Names per page",
						Value: 50,
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Look up one fund by scheme code or exact name",
				ArgsUsage: "<scheme code or name>",
				Action:    getCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:      "fund-house",
				Usage:     "List a fund house's schemes in bulletin order",
				ArgsUsage: "<fund house name>",
				Action:    fundHouseCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:      "search",
				Usage:     "Ranked search over scheme or fund house names",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Query type (fund, fund_house)",
						Value:   search.QueryTypeFund,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum results to return",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func openDatabase(c *cli.Context, extra ...navcache.DatabaseOption) (*navcache.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := navcache.NewDatabase(dbPath, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if s := c.String("date"); s != "" {
		parsed, err := core.ParseNAVDate(s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		date = parsed
	}

	source := bulletin.NewHTTPSource(
		bulletin.WithBaseURL(c.String("url")),
		bulletin.WithTimeout(c.Duration("timeout")),
	)

	db, err := openDatabase(c, navcache.WithSource(source))
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := db.Ingest(ctx, date)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Published generation %d\n", report.Generation)
	fmt.Fprintf(os.Stderr, "NAV date:  %s\n", report.NAVDate.Format(core.NAVDateLayout))
	fmt.Fprintf(os.Stderr, "Records:   %d\n", report.RecordCount)
	fmt.Fprintf(os.Stderr, "Houses:    %d\n", report.HouseCount)
	fmt.Fprintf(os.Stderr, "Warnings:  %d\n", report.WarningCount)
	fmt.Fprintf(os.Stderr, "Elapsed:   %s\n", report.Elapsed.Round(time.Millisecond))
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.LastStatus(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("no ingestion run recorded")
			return nil
		}
		return err
	}

	fmt.Printf("State:     %s\n", status.State)
	fmt.Printf("Stage:     %s\n", status.Stage)
	fmt.Printf("NAV date:  %s\n", status.NAVDate.Format(core.NAVDateLayout))
	fmt.Printf("Started:   %s\n", status.StartedAt.Format(time.RFC3339))
	if !status.FinishedAt.IsZero() {
		fmt.Printf("Finished:  %s\n", status.FinishedAt.Format(time.RFC3339))
	}
	if status.State == core.RunStateSuccess {
		fmt.Printf("Generation:%d\n", status.Generation)
		fmt.Printf("Records:   %d\n", status.RecordCount)
		fmt.Printf("Warnings:  %d\n", status.WarningCount)
	}
	if status.Error != "" {
		fmt.Printf("Error:     %s\n", status.Error)
	}
	return nil
}

func fundsCommand(c *cli.Context) error {
	ctx := context.Background()

	page := c.Int("page")
	count := c.Int("count")
	if page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	names, err := db.GetAllFundNames(ctx)
	if err != nil {
		return err
	}

	start := (page - 1) * count
	if start >= len(names) {
		return nil
	}
	end := start + count
	if end > len(names) {
		end = len(names)
	}
	for _, name := range names[start:end] {
		fmt.Println(name)
	}
	return nil
}

func getCommand(c *cli.Context) error {
	ctx := context.Background()

	key := c.Args().First()
	if key == "" {
		return fmt.Errorf("scheme code or name is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := db.GetFund(ctx, key)
	if err != nil {
		return err
	}
	printRecord(record)
	return nil
}

func fundHouseCommand(c *cli.Context) error {
	ctx := context.Background()

	name := strings.Join(c.Args().Slice(), " ")
	if name == "" {
		return fmt.Errorf("fund house name is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.GetFundHouse(ctx, name)
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Printf("%s  %s  %s\n", record.SchemeCode, formatNAV(record), record.SchemeName)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}
	queryType, err := search.ParseQueryType(c.String("type"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Search(ctx, queryType, query, c.Int("max-hits"))
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Printf("%.2f  %s\n", result.Score, result.Key)
	}
	return nil
}

func printRecord(record *core.FundRecord) {
	fmt.Printf("Scheme code:  %s\n", record.SchemeCode)
	fmt.Printf("Scheme name:  %s\n", record.SchemeName)
	fmt.Printf("Fund house:   %s\n", record.FundHouse)
	if record.SchemeType != "" {
		fmt.Printf("Scheme type:  %s\n", record.SchemeType)
	}
	if record.SchemeCategory != "" {
		fmt.Printf("Category:     %s\n", record.SchemeCategory)
	}
	fmt.Printf("NAV:          %s\n", formatNAV(record))
	fmt.Printf("NAV date:     %s\n", record.NAVDate.Format(core.NAVDateLayout))
	if record.ISINGrowth != "" {
		fmt.Printf("ISIN growth:  %s\n", record.ISINGrowth)
	}
	if record.ISINDividend != "" {
		fmt.Printf("ISIN div:     %s\n", record.ISINDividend)
	}
	if record.HasRepurchase {
		fmt.Printf("Repurchase:   %s\n", record.Repurchase.String())
	}
	if record.HasSale {
		fmt.Printf("Sale:         %s\n", record.Sale.String())
	}
}

func formatNAV(record *core.FundRecord) string {
	if !record.HasNAV {
		return "N.A."
	}
	return record.NAV.String()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
