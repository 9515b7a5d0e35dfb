package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/dcps-reader/dcps-go/pkg/ident"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsLiveliness(t *testing.T) {
	writer := ident.New()
	entry := logJSON(t, Event{
		Timestamp: time.Now(),
		WriterID:  writer,
		Category:  CategoryLiveliness,
		Liveliness: &LivelinessEvent{
			OldState:      "ALIVE",
			NewState:      "DEAD",
			LeaseDuration: 2 * time.Second,
		},
	})

	if entry["writer"] != writer.String() {
		t.Errorf("writer: got %v, want %s", entry["writer"], writer)
	}
	if entry["category"] != "LIVELINESS" {
		t.Errorf("category: got %v", entry["category"])
	}
	if entry["new_state"] != "DEAD" {
		t.Errorf("new_state: got %v", entry["new_state"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v, want DEBUG", entry["level"])
	}
}

func TestSlogAdapterLogsHistoric(t *testing.T) {
	entry := logJSON(t, Event{
		Category: CategoryHistoric,
		Historic: &HistoricEvent{Action: HistoricHandOff, Count: 3, LastSeq: 9},
	})

	if entry["action"] != "HAND_OFF" {
		t.Errorf("action: got %v", entry["action"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("count: got %v", entry["count"])
	}
	if entry["last_seq"] != "9" {
		t.Errorf("last_seq: got %v", entry["last_seq"])
	}
}

func TestSlogAdapterLogsErrorAtWarn(t *testing.T) {
	entry := logJSON(t, Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Message: "publisher mismatch", Context: "ApplyRemoteCoherentInfo"},
	})

	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["error_msg"] != "publisher mismatch" {
		t.Errorf("error_msg: got %v", entry["error_msg"])
	}
}

func TestSlogAdapterLogsOwnership(t *testing.T) {
	owner := ident.New()
	entry := logJSON(t, Event{
		Category:  CategoryOwnership,
		Ownership: &OwnershipEvent{Instance: 5, Owner: owner, Strength: 10},
	})

	if entry["owner"] != owner.String() {
		t.Errorf("owner: got %v", entry["owner"])
	}
	if entry["instance"] != float64(5) {
		t.Errorf("instance: got %v", entry["instance"])
	}
}
