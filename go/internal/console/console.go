// Package console provides the interactive command-line board.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/mcdev12/prepboard/go/internal/models"
)

// Console drives a board from typed commands.
type Console struct {
	board *board.Board
	out   io.Writer
	rl    *readline.Instance
}

// New creates a readline-backed console.
func New(b *board.Board) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "prepboard> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("add"), readline.PcItem("preset"),
			readline.PcItem("start"), readline.PcItem("pause"),
			readline.PcItem("reset"), readline.PcItem("rm"),
			readline.PcItem("clear"), readline.PcItem("mute"),
			readline.PcItem("dark"), readline.PcItem("dense"),
			readline.PcItem("wake"), readline.PcItem("save"),
			readline.PcItem("ls"),
			readline.PcItem("help"), readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{board: b, out: rl.Stdout(), rl: rl}, nil
}

// Stdout returns a writer that does not interfere with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run reads commands until quit, EOF or ctx is done. cancel is called when
// the user leaves so the rest of the process can shut down.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the user asked to quit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	c.board.NoteInteraction()

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "quit", "exit", "q":
		return true
	case "ls", "l":
		c.cmdList()
	case "add", "a":
		err = c.cmdAdd(args)
	case "preset", "p":
		err = c.cmdPreset(args)
	case "start", "pause", "reset", "rm":
		err = c.cmdTimer(cmd, args)
	case "clear":
		var n int
		if n, err = c.board.ClearDone(); err == nil {
			fmt.Fprintf(c.out, "cleared %d done timer(s)\n", n)
		}
	case "mute":
		var muted bool
		if muted, err = c.board.ToggleMute(); err == nil {
			fmt.Fprintf(c.out, "muted: %t\n", muted)
		}
	case "dark":
		err = c.board.SetDark(!c.board.View().Flags.IsDark)
	case "dense":
		err = c.board.SetDense(!c.board.View().Flags.DenseLayout)
	case "wake":
		c.board.Wake()
		c.cmdList()
	case "save":
		if err = c.board.Flush(); err == nil {
			fmt.Fprintln(c.out, "board saved")
		}
	default:
		fmt.Fprintf(c.out, "unknown command %q, try help\n", cmd)
		return false
	}

	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

// Observe prints completion and reminder announcements as they happen.
func (c *Console) Observe(ev board.Event) {
	switch ev.Type {
	case board.EventTimerCompleted, board.EventTimerReminder:
		fmt.Fprintf(c.out, "\n  >> %s\n", ev.Message)
	case board.EventToneFailed:
		fmt.Fprintf(c.out, "\n  !! %s\n", ev.Message)
	}
}

// cmdAdd handles "add <minutes>[:<seconds>] [@accent] <label...>".
func (c *Console) cmdAdd(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <minutes>[:<seconds>] [@accent] <label>")
	}

	minutes, seconds, err := parseMinSec(args[0])
	if err != nil {
		return err
	}

	payload := models.NewTimerPayload{Minutes: minutes, Seconds: seconds}
	var label []string
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "@") {
			payload.AccentID = strings.TrimPrefix(a, "@")
			continue
		}
		label = append(label, a)
	}
	payload.Label = strings.Join(label, " ")

	t, err := c.board.AddTimer(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %s (%s)\n", t.Label, formatRemaining(t.Duration))
	return nil
}

func (c *Console) cmdPreset(args []string) error {
	presets := c.board.Palette().Presets()
	if len(args) == 0 {
		for i, p := range presets {
			fmt.Fprintf(c.out, "  %d. %s %dm\n", i+1, p.Label, p.Minutes)
		}
		return nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid preset %q", args[0])
	}
	t, err := c.board.AddPreset(n - 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %s (%s)\n", t.Label, formatRemaining(t.Duration))
	return nil
}

func (c *Console) cmdTimer(cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <number|id>", cmd)
	}
	id, err := c.resolve(args[0])
	if err != nil {
		return err
	}

	switch cmd {
	case "start":
		return c.board.StartTimer(id)
	case "pause":
		return c.board.PauseTimer(id)
	case "reset":
		return c.board.ResetTimer(id)
	default:
		return c.board.RemoveTimer(id)
	}
}

// resolve accepts a 1-based position from ls or an id prefix.
func (c *Console) resolve(ref string) (string, error) {
	timers := c.board.Derived().SortedTimers
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(timers) {
			return "", fmt.Errorf("%w: #%d", board.ErrTimerNotFound, n)
		}
		return timers[n-1].ID, nil
	}

	var match string
	for _, t := range timers {
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("ambiguous timer id %q", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", board.ErrTimerNotFound, ref)
	}
	return match, nil
}

func (c *Console) cmdList() {
	view := c.board.View()
	d := view.Derived

	fmt.Fprintf(c.out, "%s | running %d | done %d | next %s", d.KitchenMood, d.RunningCount, d.DoneCount, d.NextCompleteCopy)
	if view.Muted {
		fmt.Fprint(c.out, " | muted")
	}
	fmt.Fprintln(c.out)

	if view.Announcement != "" {
		fmt.Fprintf(c.out, "  >> %s\n", view.Announcement)
	}
	if view.AudioError != "" {
		fmt.Fprintf(c.out, "  !! %s\n", view.AudioError)
	}
	for i, t := range d.SortedTimers {
		fmt.Fprintf(c.out, "  %d. %-20s %-8s %8s  [%s] %s\n",
			i+1, t.Label, t.Status, formatRemaining(t.Remaining), t.Accent.Name, shortID(t.ID))
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  add <min>[:<sec>] [@accent] <label>   add a timer
  preset [n]                            list presets or add preset n
  start|pause|reset|rm <n|id>           act on timer n from ls
  clear                                 remove done timers
  mute | dark | dense                   toggle preferences
  wake                                  resync after suspend
  save                                  write the board to the store now
  ls                                    show the board
  quit                                  leave
`)
}

func parseMinSec(s string) (int, int, error) {
	minPart, secPart, hasSec := strings.Cut(s, ":")
	minutes, err := strconv.Atoi(minPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minutes %q", minPart)
	}
	if !hasSec {
		return minutes, 0, nil
	}
	seconds, err := strconv.Atoi(secPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid seconds %q", secPart)
	}
	return minutes, seconds, nil
}

// formatRemaining renders mm:ss, rounding partial seconds up.
func formatRemaining(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
