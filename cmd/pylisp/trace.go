package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/thomasrohde/pylisp/pkg/evaluator"
)

// TraceSummary is the digest printed by `pylisp trace`.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	TotalEvents   int            `json:"totalEvents"`
	Evaluations   int            `json:"evaluations"`
	FnCalls       int            `json:"fnCalls"`
	FnCallsByName map[string]int `json:"fnCallsByName"`
	MaxCallDepth  int            `json:"maxCallDepth"`
	Definitions   []string       `json:"definitions"`
	Errors        int            `json:"errors"`
	ErrorsByCode  map[string]int `json:"errorsByCode"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

// computeTraceSummary reads NDJSON trace events from r. Lines that are not
// events are skipped; a read failure, including an over-long line, is an
// error.
func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{
		FnCallsByName: make(map[string]int),
		Definitions:   []string{},
		ErrorsByCode:  make(map[string]int),
	}

	open := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}
		if summary.StartTime == "" {
			summary.StartTime = event.Timestamp
		}
		summary.EndTime = event.Timestamp

		switch event.Event {
		case evaluator.TraceEvalStart:
			summary.Evaluations++
		case evaluator.TraceFnCallStart:
			summary.FnCalls++
			if name, ok := event.Data["fn"].(string); ok {
				summary.FnCallsByName[name]++
			}
			open++
			if open > summary.MaxCallDepth {
				summary.MaxCallDepth = open
			}
		case evaluator.TraceFnCallEnd:
			if open > 0 {
				open--
			}
		case evaluator.TraceDefun:
			if name, ok := event.Data["fn"].(string); ok {
				summary.Definitions = append(summary.Definitions, name)
			}
		case evaluator.TraceError:
			summary.Errors++
			if code, ok := event.Data["code"].(string); ok {
				summary.ErrorsByCode[code]++
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", s.Evaluations)
	fmt.Fprintf(w, "Calls: %d (max depth %d)\n", s.FnCalls, s.MaxCallDepth)
	for _, name := range sortedKeys(s.FnCallsByName) {
		fmt.Fprintf(w, "  %s: %d\n", name, s.FnCallsByName[name])
	}
	if len(s.Definitions) > 0 {
		fmt.Fprintf(w, "Defined: %s\n", strings.Join(s.Definitions, ", "))
	}
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	for _, code := range sortedKeys(s.ErrorsByCode) {
		fmt.Fprintf(w, "  %s: %d\n", code, s.ErrorsByCode[code])
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.1fms\n", s.DurationMs)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
