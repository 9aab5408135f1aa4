package model

import "fmt"

// DefaultBaseURL is the host prefix every trip-data file is served from.
const DefaultBaseURL = "https://d37ci6vzurychx.cloudfront.net/trip-data"

// DataTypes lists the trip-record datasets published by the TLC.
var DataTypes = []string{"yellow", "green", "fhv", "fhvhv"}

// Task is one monthly file to fetch.
//
// A Task is created by a Planner and is consumed by exactly one download
// worker. ExpectedSize is zero until the size probe fills it in, and may be
// corrected later if the transfer response reveals a length the probe missed.
//
// Example:
//
//	task := NewTask("yellow", DateKey{Year: 2023, Month: 1})
//	// task.URL      = "https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2023-01.parquet"
//	// task.Filename = "yellow_tripdata_2023-01.parquet"
type Task struct {
	// Type is the dataset type (yellow, green, fhv, fhvhv).
	Type string

	// Date is the month the file covers.
	Date DateKey

	// URL is the remote location of the file.
	URL string

	// Filename is the local file name, relative to the output directory.
	// Unique per (Type, Date).
	Filename string

	// ExpectedSize is the remote size in bytes, or 0 if unknown.
	ExpectedSize int64
}

// Planner maps dataset months to tasks.
type Planner struct {
	// BaseURL is the URL prefix files are fetched from, without a trailing slash.
	BaseURL string
}

// Plan builds the task for one dataset month. It performs no I/O.
func (p Planner) Plan(dataType string, date DateKey) *Task {
	base := p.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	name := FileName(dataType, date)
	return &Task{
		Type:     dataType,
		Date:     date,
		URL:      base + "/" + name,
		Filename: name,
	}
}

// PlanAll builds one task per key, preserving order.
func (p Planner) PlanAll(dataType string, dates []DateKey) []*Task {
	tasks := make([]*Task, 0, len(dates))
	for _, d := range dates {
		tasks = append(tasks, p.Plan(dataType, d))
	}
	return tasks
}

// NewTask plans a task against DefaultBaseURL.
func NewTask(dataType string, date DateKey) *Task {
	return Planner{}.Plan(dataType, date)
}

// FileName returns the canonical file name for a dataset month.
func FileName(dataType string, date DateKey) string {
	return fmt.Sprintf("%s_tripdata_%d-%02d.parquet", dataType, date.Year, date.Month)
}
