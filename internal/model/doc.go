// Package model defines the core data structures used throughout
// tlc-downloader.
//
// # DateKey
//
// DateKey identifies one month of a dataset. Ranges are parsed from
// YYYY-MM strings and expanded month by month, both ends included:
//
//	keys, err := model.ExpandRange("2023-01", "2023-03")
//	// [2023-01 2023-02 2023-03]
//
// A start that sorts after the end yields an empty slice, not an error.
//
// # Task
//
// Task represents a single remote file and its local name:
//
//	task := model.NewTask("yellow", keys[0])
//	fmt.Println(task.URL)      // remote parquet URL
//	fmt.Println(task.Filename) // yellow_tripdata_2023-01.parquet
//
// Planner builds tasks against a configurable base URL and is free of I/O,
// so re-running it with the same inputs always yields the same tasks.
//
// # Status
//
// Status tracks a task from pending to one of its terminal states:
// skipped, completed, failed or cancelled.
package model
