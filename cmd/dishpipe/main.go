// Copyright 2025 Poiesic Systems
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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/dishpipe"
	"github.com/poiesic/dishpipe/config"
	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/dedup"
	"github.com/poiesic/dishpipe/sources"
)

func main() {
	app := &cli.App{
		Name:  "dishpipe",
		Usage: "Recipe ingestion pipeline for the dish database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "dishpipe.yaml",
			},
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
				Name:   "scrape",
				Usage:  "Fetch recipes from the configured sources and upload them",
				Action: scrapeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Run only the named source (themealdb, spoonacular, edamam, recipepuppy)",
					},
				},
			},
			{
				Name:      "resume",
				Usage:     "Replay a failed-recipes side log through the upload pipeline",
				ArgsUsage: "[failed-recipes.json]",
				Action:    resumeCommand,
			},
			{
				Name:   "report",
				Usage:  "Scan the store for near-duplicate dishes and write a report",
				Action: reportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Report output path",
						Value:   "duplicate-report.json",
					},
				},
			},
			{
				Name:   "cleanup",
				Usage:  "Remove exact duplicate dishes already in the store",
				Action: cleanupCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show store totals and recent activity",
				Action: statsCommand,
			},
			{
				Name:      "seed",
				Usage:     "Bulk upsert dishes from a JSON file, expanding variations",
				ArgsUsage: "<dishes.json>",
				Action:    seedCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDatabase(c *cli.Context) (*dishpipe.Database, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	db, err := dishpipe.NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func scrapeCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	adapters := db.Adapters()
	if name := strings.ToLower(c.String("source")); name != "" {
		adapters = selectAdapter(adapters, name)
		if len(adapters) == 0 {
			return fmt.Errorf("source %q is unknown or not enabled", name)
		}
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no sources enabled; check the configuration")
	}

	runner, err := db.NewRunner(adapters)
	if err != nil {
		return err
	}

	results, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			rows = append(rows, []string{res.Source, "-", "-", "-", "-", res.Err.Error()})
			continue
		}
		rows = append(rows, []string{
			res.Source,
			strconv.Itoa(res.Fetched),
			strconv.Itoa(res.Filtered),
			strconv.Itoa(res.Stats.Success),
			strconv.Itoa(res.Stats.Duplicates()),
			"",
		})
	}
	fmt.Println(renderTable(
		[]string{"Source", "Fetched", "Filtered", "Uploaded", "Duplicates", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func selectAdapter(adapters []sources.Adapter, name string) []sources.Adapter {
	for _, adapter := range adapters {
		if strings.ToLower(adapter.Source()) == name ||
			strings.ReplaceAll(strings.ToLower(adapter.Source()), " ", "") == name {
			return []sources.Adapter{adapter}
		}
	}
	return nil
}

func resumeCommand(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	path := c.Args().First()
	if path == "" {
		path = cfg.FailedLogPath()
	}

	pipeline, err := db.NewUploadPipeline()
	if err != nil {
		return err
	}

	stats, err := pipeline.Resume(context.Background(), path)
	if err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}
	printStats(stats.Total, stats.Success, stats.Failed, stats.Duplicates())
	return nil
}

func reportCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pairs, err := dedup.Report(context.Background(), db.DishRepository())
	if err != nil {
		return fmt.Errorf("duplicate scan failed: %w", err)
	}

	out := c.String("out")
	if err := dedup.WriteReport(out, pairs); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("Found %d suspected duplicate pairs, report written to %s\n", len(pairs), out)

	// Preview the first few pairs.
	const previewLimit = 10
	rows := make([][]string, 0, previewLimit)
	for i, pair := range pairs {
		if i == previewLimit {
			break
		}
		rows = append(rows, []string{
			pair.Recipe1,
			pair.Recipe2,
			fmt.Sprintf("%.2f", pair.Similarity),
			pair.Country,
		})
	}
	if len(rows) > 0 {
		fmt.Println(renderTable(
			[]string{"Recipe 1", "Recipe 2", "Similarity", "Country"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	return nil
}

func cleanupCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := dedup.Cleanup(context.Background(), db.DishRepository())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Removed %d duplicate dishes\n", removed)
	return nil
}

func statsCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	count, err := db.DishRepository().Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Dishes in store: %d\n\n", count)

	entries, err := db.ActivityLog().Recent(10)
	if err != nil {
		return fmt.Errorf("read activity log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No recent activity.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			string(entry.Kind),
			entry.Message,
		})
	}
	fmt.Println(renderTable(
		[]string{"Time", "Kind", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func seedCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a dishes JSON file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var dishes []*core.Dish
	if err := json.Unmarshal(data, &dishes); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// Variations become standalone records next to their parents.
	expanded := core.ExpandAll(dishes)

	valid := make([]*core.Dish, 0, len(expanded))
	skipped := 0
	for _, dish := range expanded {
		normalized, err := core.ValidateDish(dish)
		if err != nil {
			slog.Warn("skipping invalid seed dish",
				slog.String("name", dish.Name), slog.Any("error", err))
			skipped++
			continue
		}
		valid = append(valid, normalized)
	}

	result, err := db.DishRepository().BulkUpsert(context.Background(), valid)
	if err != nil {
		return fmt.Errorf("bulk upsert failed: %w", err)
	}
	fmt.Printf("Seeded %d dishes (%d inserted, %d updated, %d skipped)\n",
		len(valid), result.Inserted, result.Updated, skipped)
	return nil
}

func printStats(total, success, failed, duplicates int) {
	fmt.Println(renderTable(
		[]string{"Total", "Uploaded", "Failed", "Duplicates"},
		[][]string{{
			strconv.Itoa(total),
			strconv.Itoa(success),
			strconv.Itoa(failed),
			strconv.Itoa(duplicates),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
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
