// Package uci implements the subset of the Universal Chess Interface
// protocol that drives the engine's options, table and bench.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/hailam/chesshash/internal/board"
	"github.com/hailam/chesshash/internal/engine"
)

// Engine identification.
const (
	Name   = "ChessHash"
	Author = "ChessPlay Team"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	in     io.Reader
	out    io.Writer
	log    *slog.Logger

	mu sync.Mutex // Serialises writes to out

	// Search state
	searchDone chan struct{}
	cancel     context.CancelFunc

	// Callbacks
	OnBench func(engine.BenchResult) // Called after a bench that was not stopped
}

// New creates a protocol handler reading commands from in and writing
// responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, log *slog.Logger) *UCI {
	if log == nil {
		log = slog.Default()
	}
	u := &UCI{
		engine: eng,
		in:     in,
		out:    out,
		log:    log,
	}
	eng.OnInfo = u.sendInfo
	return u
}

// Run reads commands until "quit" or the end of input. Any running search
// is stopped before Run returns.
func (u *UCI) Run(ctx context.Context) error {
	defer u.handleStop()

	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		u.log.Debug("command", "cmd", cmd, "args", args)

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "setoption":
			u.handleSetOption(args)
		case "bench":
			u.handleBench(ctx, args)
		case "hashfull":
			u.printf("info hashfull %d\n", u.engine.HashFull())
		case "stop":
			u.handleStop()
		case "quit":
			return nil
		default:
			u.printf("info string Unknown command: %s\n", cmd)
		}
	}
	return scanner.Err()
}

func (u *UCI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, err := fmt.Fprintf(u.out, format, args...); err != nil {
		u.log.Warn("write failed", "error", err)
	}
}

func (u *UCI) println(s string) { u.printf("%s\n", s) }

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.mu.Lock()
	fmt.Fprintf(u.out, "id name %s\nid author %s\n\n", Name, Author)
	err := u.engine.Options().WriteUCI(u.out)
	u.mu.Unlock()
	if err != nil {
		u.log.Warn("write options", "error", err)
	}
	u.println("uciok")
}

// handleNewGame waits for any running search and clears the table.
func (u *UCI) handleNewGame() {
	u.engine.NewGame()
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> [value <value>]
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch {
		case arg == "name" && !readingValue:
			readingName = true
		case arg == "value" && readingName:
			readingName = false
			readingValue = true
		case readingName:
			if name != "" {
				name += " "
			}
			name += arg
		case readingValue:
			if value != "" {
				value += " "
			}
			value += arg
		}
	}

	if name == "" {
		u.println("info string setoption: missing name")
		return
	}
	if err := u.engine.SetOption(name, value); err != nil {
		u.printf("info string %v\n", err)
	}
}

// handleBench parses "bench [depth] [positions]" and runs it in the
// background.
func (u *UCI) handleBench(ctx context.Context, args []string) {
	var limits engine.SearchLimits
	for i, dst := range []*int{&limits.Depth, &limits.Positions} {
		if i >= len(args) {
			break
		}
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 1 {
			u.printf("info string bench: invalid argument %q\n", args[i])
			return
		}
		*dst = n
	}

	if u.benchRunning() || u.engine.Searching() {
		u.println("info string search already in progress")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.searchDone = done
	u.cancel = cancel

	go func() {
		defer close(done)
		defer cancel()

		res, err := u.engine.Bench(ctx, limits)
		if err != nil && !errors.Is(err, context.Canceled) {
			u.printf("info string bench: %v\n", err)
			return
		}
		u.printf("\n===========================\n"+
			"Total time (ms) : %d\n"+
			"Nodes searched  : %d\n"+
			"Nodes/second    : %d\n"+
			"TT hits         : %d\n",
			res.Time.Milliseconds(), res.Nodes, res.NPS(), res.Hits)
		if !res.Stopped && u.OnBench != nil {
			u.OnBench(res)
		}
	}()
}

// benchRunning reports whether a bench started by this session has not yet
// returned. The engine only reports busy once the bench goroutine runs.
func (u *UCI) benchRunning() bool {
	if u.searchDone == nil {
		return false
	}
	select {
	case <-u.searchDone:
		return false
	default:
		return true
	}
}

// sendInfo prints one "info" line per completed iteration.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d score cp %d nodes %d nps %d hashfull %d time %d",
		info.Depth, info.Score, info.Nodes, info.NPS(), info.HashFull, info.Time.Milliseconds())
	if info.Move != board.NoMove {
		fmt.Fprintf(&b, " pv %s", info.Move)
	}
	u.println(b.String())
}

// handleStop stops the current search and waits for it to finish.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.engine.Stop()
	u.cancel()
	<-u.searchDone
	u.searchDone = nil
}
