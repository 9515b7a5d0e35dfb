package interactive

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/reader"
	"github.com/dcps-reader/dcps-go/pkg/timertask"
)

func newTestShell(t *testing.T, exclusive bool) (*Shell, *bytes.Buffer) {
	t.Helper()
	clock := timertask.NewFakeScheduler(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r := reader.New(ident.New(), reader.Config{
		ExclusiveOwnership: exclusive,
		Scheduler:          clock,
	})
	t.Cleanup(r.Close)

	var out bytes.Buffer
	s := newShell(&out)
	s.Attach(r, clock)
	return s, &out
}

func run(s *Shell, lines ...string) {
	for _, line := range lines {
		s.Exec(line)
	}
}

func TestShellLiveDelivery(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a", "sample a 1 instance=4")

	assert.Contains(t, out.String(), "Added writer a")
	assert.Contains(t, out.String(), "** liveliness: alive=1 (+1) not_alive=0 (+0) last=a")
	assert.Contains(t, out.String(), "<- a seq=1 instance=4\n")
}

func TestShellHistoricHandOff(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a durable", "sample a 2", "sample a 1", "status")
	assert.Contains(t, out.String(), "historic=2")
	assert.NotContains(t, out.String(), "<- a")

	out.Reset()
	run(s, "end-historic a")
	assert.Equal(t,
		"<- a seq=1 instance=0 historic\n"+
			"<- a seq=2 instance=0 historic\n"+
			"Historic data from a delivered: 2 samples\n",
		out.String())
}

func TestShellCoherentSet(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a", "sample a 1 coherent", "sample a 2 coherent")
	assert.NotContains(t, out.String(), "<- a")

	run(s, "control a 2 2")
	assert.Contains(t, out.String(), "<- a seq=1 instance=0 coherent")
	assert.Contains(t, out.String(), "<- a seq=2 instance=0 coherent")
	assert.Contains(t, out.String(), "Coherent set from a: COMPLETED")
}

func TestShellGroupCoherentSet(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a", "sample a 1 group", "control a 1 1 group")
	assert.Contains(t, out.String(), "<- a seq=1 instance=0 coherent")
	assert.Contains(t, out.String(), "Coherent set from a: COMPLETED")
}

func TestShellCoherentRejected(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a", "sample a 1 coherent", "sample a 2 coherent", "control a 1 1")
	assert.Contains(t, out.String(), "Coherent set from a: REJECTED")
	assert.NotContains(t, out.String(), "<- a")
}

func TestShellLeaseExpiry(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a lease=1s", "sample a 1")
	out.Reset()

	run(s, "advance 500ms", "check")
	assert.Contains(t, out.String(), "Next lease deadline in 500ms")
	assert.NotContains(t, out.String(), "not_alive=1")

	run(s, "advance 1s")
	assert.Contains(t, out.String(), "** liveliness: alive=0 (-1) not_alive=1 (+1) last=a")

	out.Reset()
	run(s, "status")
	assert.Contains(t, out.String(), "Alive: 0  Not alive: 1")
	assert.Contains(t, out.String(), "DEAD")
}

func TestShellExclusiveOwnership(t *testing.T) {
	s, out := newTestShell(t, true)

	run(s, "add a strength=1", "add b strength=5",
		"sample a 1 instance=3", "sample b 1 instance=3", "sample a 2 instance=3",
		"owner 3", "owner 9")

	assert.Contains(t, out.String(), "<- a seq=1 instance=3\n")
	assert.Contains(t, out.String(), "<- b seq=1 instance=3\n")
	assert.NotContains(t, out.String(), "<- a seq=2")
	assert.Contains(t, out.String(), "Instance 3 owned by b")
	assert.Contains(t, out.String(), "Instance 9 has no owner")
}

func TestShellRemoveWriter(t *testing.T) {
	s, out := newTestShell(t, false)

	run(s, "add a", "remove a", "status")
	assert.Contains(t, out.String(), "Removed writer a")
	assert.Contains(t, out.String(), "No writers")
}

func TestShellErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"frobnicate", "Unknown command: frobnicate"},
		{"add", "Error: usage: add"},
		{"add a bogus", `Error: unknown option "bogus"`},
		{"add a strength=x", "Error: invalid strength"},
		{"remove ghost", "Error: "},
		{"sample a zero", "Error: invalid sequence number"},
		{"sample a 0", "Error: invalid sequence number"},
		{"control a x 1", "Error: invalid count"},
		{"control a 1 1 solo", `Error: unknown option "solo"`},
		{"advance soon", "Error: invalid duration"},
		{"advance -1s", "Error: duration must not be negative"},
		{"owner x", "Error: invalid instance"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s, out := newTestShell(t, false)
			assert.True(t, s.Exec(tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestShellAdvanceWithoutClock(t *testing.T) {
	r := reader.New(ident.New(), reader.Config{})
	t.Cleanup(r.Close)

	var out bytes.Buffer
	s := newShell(&out)
	s.Attach(r, nil)

	s.Exec("advance 1s")
	assert.Contains(t, out.String(), "Error: advance requires the simulated clock")
}

func TestShellWriterNames(t *testing.T) {
	s, _ := newTestShell(t, false)

	a := s.writerID("a")
	require.False(t, a.IsUnknown())
	assert.Equal(t, a, s.writerID("a"))
	assert.NotEqual(t, a, s.writerID("b"))

	explicit := "0a0a0a0a.0a0a0a0a.0a0a0a0a.00000102"
	assert.Equal(t, ident.MustParse(explicit), s.writerID(explicit))
	assert.Equal(t, "a", s.nameOf(a))
}

func TestShellWriterNamesConcurrent(t *testing.T) {
	s, _ := newTestShell(t, false)
	a := s.writerID("a")

	// Timer goroutines resolve names while commands bind new ones.
	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			for range 100 {
				assert.Equal(t, "a", s.nameOf(a))
			}
		})
	}
	for i := range 100 {
		s.writerID(fmt.Sprintf("w%d", i))
	}
	wg.Wait()

	assert.Len(t, s.names, 101)
}

func TestShellQuit(t *testing.T) {
	s, _ := newTestShell(t, false)

	assert.True(t, s.Exec(""))
	assert.True(t, s.Exec("help"))
	assert.False(t, s.Exec("quit"))
	assert.False(t, s.Exec("q"))
}
