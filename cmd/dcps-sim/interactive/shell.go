// Package interactive provides the interactive command-line interface for
// the reader simulator.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/dcps-reader/dcps-go/pkg/coherent"
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/reader"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
	"github.com/dcps-reader/dcps-go/pkg/timertask"
	"github.com/dcps-reader/dcps-go/pkg/writerinfo"
)

// Shell drives a Reader from typed commands. Writers are referred to by
// short names; each name is bound to a fresh GUID on first use unless it
// already is a GUID.
type Shell struct {
	rl  *readline.Instance
	out io.Writer

	r *reader.Reader

	// clock is nil when timers run on the system scheduler.
	clock *timertask.FakeScheduler

	// names is read by handlers running on timer goroutines.
	namesMu   sync.Mutex
	names     map[string]ident.GUID
	publisher ident.GUID
}

// New creates a shell with a readline prompt. Call Attach before Run.
func New() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "reader> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(out io.Writer) *Shell {
	return &Shell{
		out:       out,
		names:     make(map[string]ident.GUID),
		publisher: ident.New(),
	}
}

// Stdout returns a writer that coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Stderr returns a writer for log output that does not clobber the prompt.
func (s *Shell) Stderr() io.Writer {
	if s.rl != nil {
		return s.rl.Stderr()
	}
	return s.out
}

// Attach binds the shell to r. A non-nil clock enables the advance command.
func (s *Shell) Attach(r *reader.Reader, clock *timertask.FakeScheduler) {
	s.r = r
	s.clock = clock
	r.OnSample(s.printDelivery)
	r.OnLivelinessChanged(s.printLiveliness)
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	// Closing the prompt unblocks a pending Readline.
	stop := context.AfterFunc(ctx, func() { s.rl.Close() })
	defer stop()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.Exec(line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs a single command line. It returns false when the shell should
// exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "add", "a":
		err = s.cmdAdd(args)
	case "remove", "rm":
		err = s.cmdRemove(args)
	case "sample", "s":
		err = s.cmdSample(args)
	case "end-historic", "eh":
		err = s.cmdEndHistoric(args)
	case "control", "c":
		err = s.cmdControl(args)
	case "advance", "adv":
		err = s.cmdAdvance(args)
	case "check":
		s.cmdCheck()
	case "owner":
		err = s.cmdOwner(args)
	case "status", "st":
		s.cmdStatus()
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Reader Simulator Commands:
  Writers:
    add <w> [durable] [strength=N] [lease=D]  - Match a writer
    remove <w>                                - Unmatch a writer

  Samples:
    sample <w> <seq> [coherent] [group] [instance=N]
                                              - Receive a sample
    end-historic <w>                          - Signal end of historic data
    control <w> <count> <last> [group]        - Receive end-of-set control

  Time:
    advance <duration>                        - Advance the simulated clock
    check                                     - Evaluate all leases now

  Inspection:
    status                                    - Show liveliness and writers
    owner <instance>                          - Show the instance owner

  Other:
    help                                      - Show this help
    quit                                      - Exit`)
}

// writerID resolves a writer name, binding new names to fresh GUIDs.
func (s *Shell) writerID(name string) ident.GUID {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()
	if id, ok := s.names[name]; ok {
		return id
	}
	if id, err := ident.Parse(name); err == nil {
		return id
	}
	id := ident.New()
	s.names[name] = id
	return id
}

// nameOf returns the name bound to id, or its short form.
func (s *Shell) nameOf(id ident.GUID) string {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()
	for name, bound := range s.names {
		if bound == id {
			return name
		}
	}
	return id.Short()
}

// option splits a key=value argument.
func option(arg string) (key, value string, ok bool) {
	return strings.Cut(arg, "=")
}

func (s *Shell) cmdAdd(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: add <w> [durable] [strength=N] [lease=D]")
	}

	var opts reader.WriterOptions
	for _, arg := range args[1:] {
		key, value, hasValue := option(arg)
		switch {
		case key == "durable" && !hasValue:
			opts.Durable = true
		case key == "strength" && hasValue:
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid strength %q: %w", value, err)
			}
			opts.OwnershipStrength = int32(n)
		case key == "lease" && hasValue:
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid lease %q: %w", value, err)
			}
			opts.LeaseDuration = d
		default:
			return fmt.Errorf("unknown option %q", arg)
		}
	}

	id := s.writerID(args[0])
	if err := s.r.AddWriter(id, opts); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added writer %s (%s)\n", args[0], id)
	return nil
}

func (s *Shell) cmdRemove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <w>")
	}
	if err := s.r.RemoveWriter(s.writerID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Removed writer %s\n", args[0])
	return nil
}

func (s *Shell) cmdSample(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: sample <w> <seq> [coherent] [group] [instance=N]")
	}
	seq, err := parseSeq(args[1])
	if err != nil {
		return err
	}

	sample := writerinfo.Sample{Seq: seq, Payload: []byte(args[1])}
	var flags reader.Flags
	for _, arg := range args[2:] {
		key, value, hasValue := option(arg)
		switch {
		case key == "coherent" && !hasValue:
			flags.Coherent = true
		case key == "group" && !hasValue:
			flags.Coherent = true
			flags.GroupCoherent = true
			flags.PublisherID = s.publisher
		case key == "instance" && hasValue:
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid instance %q: %w", value, err)
			}
			sample.Instance = ident.InstanceHandle(n)
		default:
			return fmt.Errorf("unknown option %q", arg)
		}
	}

	return s.r.Receive(s.writerID(args[0]), sample, flags)
}

func (s *Shell) cmdEndHistoric(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: end-historic <w>")
	}
	n, err := s.r.EndHistoric(s.writerID(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Historic data from %s delivered: %d samples\n", args[0], n)
	return nil
}

func (s *Shell) cmdControl(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return errors.New("usage: control <w> <count> <last> [group]")
	}
	count, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", args[1], err)
	}
	last, err := parseSeq(args[2])
	if err != nil {
		return err
	}

	id := s.writerID(args[0])
	ctrl := coherent.Control{
		Samples: coherent.WriterSample{NumSamples: uint32(count), LastSample: last},
	}
	if len(args) == 4 {
		if args[3] != "group" {
			return fmt.Errorf("unknown option %q", args[3])
		}
		ctrl.GroupCoherent = true
		ctrl.PublisherID = s.publisher
		ctrl.GroupSamples = map[ident.GUID]coherent.WriterSample{id: ctrl.Samples}
	}

	state, err := s.r.ApplyCoherentControl(id, ctrl)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Coherent set from %s: %s\n", args[0], state)
	return nil
}

func (s *Shell) cmdAdvance(args []string) error {
	if s.clock == nil {
		return errors.New("advance requires the simulated clock")
	}
	if len(args) != 1 {
		return errors.New("usage: advance <duration>")
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}
	if d < 0 {
		return errors.New("duration must not be negative")
	}
	s.clock.Advance(d)
	fmt.Fprintf(s.out, "Clock at %s\n", s.clock.Now().Format(time.RFC3339Nano))
	return nil
}

func (s *Shell) cmdCheck() {
	var now time.Time
	if s.clock != nil {
		now = s.clock.Now()
	} else {
		now = time.Now()
	}
	if next, ok := s.r.CheckLiveliness(now); ok {
		fmt.Fprintf(s.out, "Next lease deadline in %s\n", next.Sub(now))
	} else {
		fmt.Fprintln(s.out, "No leases pending")
	}
}

func (s *Shell) cmdOwner(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: owner <instance>")
	}
	n, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid instance %q: %w", args[0], err)
	}
	instance := ident.InstanceHandle(n)
	if owner, ok := s.r.Owner(instance); ok {
		fmt.Fprintf(s.out, "Instance %s owned by %s\n", instance, s.nameOf(owner))
	} else {
		fmt.Fprintf(s.out, "Instance %s has no owner\n", instance)
	}
	return nil
}

func (s *Shell) cmdStatus() {
	st := s.r.LivelinessChanged()
	fmt.Fprintf(s.out, "Reader %s\n", s.r.ID())
	fmt.Fprintf(s.out, "  Alive: %d  Not alive: %d\n", st.AliveCount, st.NotAliveCount)

	writers := s.r.Writers()
	if len(writers) == 0 {
		fmt.Fprintln(s.out, "  No writers")
		return
	}
	for _, w := range writers {
		fmt.Fprintf(s.out, "  %-8s %-8s lease=%s", s.nameOf(w.WriterID), w.State, w.LeaseDuration)
		if w.WaitingForHistoric {
			fmt.Fprintf(s.out, " historic=%d", w.BufferedHistoric)
		}
		if w.CoherentSamples > 0 {
			fmt.Fprintf(s.out, " coherent=%d", w.CoherentSamples)
		}
		fmt.Fprintln(s.out)
	}
}

func (s *Shell) printDelivery(d reader.Delivery) {
	var kind string
	switch {
	case d.Historic:
		kind = " historic"
	case d.Coherent:
		kind = " coherent"
	}
	fmt.Fprintf(s.out, "<- %s seq=%s instance=%s%s\n",
		s.nameOf(d.WriterID), d.Sample.Seq, d.Sample.Instance, kind)
}

func (s *Shell) printLiveliness(st reader.LivelinessChangedStatus) {
	fmt.Fprintf(s.out, "** liveliness: alive=%d (%+d) not_alive=%d (%+d) last=%s\n",
		st.AliveCount, st.AliveCountChange, st.NotAliveCount, st.NotAliveCountChange,
		s.nameOf(st.LastWriter))
}

// parseSeq parses a positive sequence number.
func parseSeq(arg string) (seqnum.Number, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return seqnum.Unknown, fmt.Errorf("invalid sequence number %q: %w", arg, err)
	}
	seq := seqnum.Number(n)
	if !seq.IsValid() {
		return seqnum.Unknown, fmt.Errorf("invalid sequence number %q", arg)
	}
	return seq, nil
}
