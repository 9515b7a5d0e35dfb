package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	HistoricActions  map[log.HistoricAction]int
	CoherentResults  map[string]int
	Writers          map[ident.GUID]*WriterStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// WriterStats holds statistics for a single writer.
type WriterStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	LastState   string
	Deaths      int
	HandOffs    int
	OwnedEvents int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := collectStats(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		HistoricActions:  make(map[log.HistoricAction]int),
		CoherentResults:  make(map[string]int),
		Writers:          make(map[ident.GUID]*WriterStats),
	}

	err := reader.Each(func(event log.Event) error {
		stats.add(event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// add folds event into the totals.
func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	ws, ok := s.Writers[event.WriterID]
	if !ok {
		ws = &WriterStats{FirstSeen: event.Timestamp}
		s.Writers[event.WriterID] = ws
	}
	ws.Events++
	if event.Timestamp.After(ws.LastSeen) {
		ws.LastSeen = event.Timestamp
	}

	switch {
	case event.Liveliness != nil:
		ws.LastState = event.Liveliness.NewState
		if event.Liveliness.Removed {
			ws.LastState = "REMOVED"
		} else if event.Liveliness.NewState == "DEAD" && event.Liveliness.OldState != "DEAD" {
			ws.Deaths++
		}
	case event.Historic != nil:
		s.HistoricActions[event.Historic.Action]++
		if event.Historic.Action == log.HistoricHandOff {
			ws.HandOffs++
		}
	case event.Coherent != nil:
		s.CoherentResults[event.Coherent.Result]++
	case event.Ownership != nil:
		if !event.Ownership.Owner.IsUnknown() {
			ws.OwnedEvents++
		}
	case event.Error != nil:
		s.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Reader Log Statistics ===")
	fmt.Fprintln(w)

	if !stats.TimeRange.Start.IsZero() {
		fmt.Fprintf(w, "Time Range: %s - %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration: %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Category:")
	for _, c := range []log.Category{
		log.CategoryLiveliness, log.CategoryHistoric, log.CategoryCoherent,
		log.CategoryOwnership, log.CategoryError,
	} {
		if n := stats.EventsByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", n)
		}
	}
	fmt.Fprintln(w)

	if len(stats.HistoricActions) > 0 {
		fmt.Fprintln(w, "Historic:")
		actions := make([]log.HistoricAction, 0, len(stats.HistoricActions))
		for a := range stats.HistoricActions {
			actions = append(actions, a)
		}
		sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
		for _, a := range actions {
			fmt.Fprintf(w, "  %-16s %d\n", a.String()+":", stats.HistoricActions[a])
		}
		fmt.Fprintln(w)
	}

	if len(stats.CoherentResults) > 0 {
		fmt.Fprintln(w, "Coherent Sets:")
		results := make([]string, 0, len(stats.CoherentResults))
		for r := range stats.CoherentResults {
			results = append(results, r)
		}
		sort.Strings(results)
		for _, r := range results {
			fmt.Fprintf(w, "  %-18s %d\n", r+":", stats.CoherentResults[r])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Writers: %d\n", len(stats.Writers))
	ids := make([]ident.GUID, 0, len(stats.Writers))
	for id := range stats.Writers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	for _, id := range ids {
		ws := stats.Writers[id]
		fmt.Fprintf(w, "  %s:\n", id)
		fmt.Fprintf(w, "    Events: %d\n", ws.Events)
		if ws.LastState != "" {
			fmt.Fprintf(w, "    Last State: %s\n", ws.LastState)
		}
		if ws.Deaths > 0 {
			fmt.Fprintf(w, "    Liveliness Lost: %d\n", ws.Deaths)
		}
		if ws.HandOffs > 0 {
			fmt.Fprintf(w, "    Historic Hand-offs: %d\n", ws.HandOffs)
		}
		if ws.OwnedEvents > 0 {
			fmt.Fprintf(w, "    Ownership Taken: %d\n", ws.OwnedEvents)
		}
		fmt.Fprintf(w, "    Active: %s - %s\n",
			ws.FirstSeen.Format("15:04:05"), ws.LastSeen.Format("15:04:05"))
	}
}
