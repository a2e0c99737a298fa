package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"transportdesk/internal/domain/models"
	"transportdesk/internal/viewsync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchHelp = "keys: r refresh, a <id> approve, x <id> reject, d <id> delete, q quit"

// WatchCmd creates the watch command: a live list refreshed in the background. Lines read
// from stdin act on the list through the view so the screen updates before the server answers.
func WatchCmd(app *AppContext) *cobra.Command {
	var (
		tabName  string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the request list, keep it refreshed and act on it until interrupted",
		Long:  "Show the request list and keep it refreshed until interrupted.\n" + watchHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := viewsync.ParseTab(tabName)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = app.Cfg.PollInterval
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			screen := &watchScreen{out: cmd.OutOrStdout(), tab: tab}
			view := viewsync.New(app.Client, app.Client, viewsync.Options{
				Interval: interval,
				Log:      app.Logger,
				OnChange: screen.render,
			})
			defer view.Close()

			if err := view.Mount(ctx); err != nil {
				app.Logger.Warn("initial load failed", zap.Error(err))
			}

			done := make(chan struct{})
			defer close(done)
			lines := readLines(cmd.InOrStdin(), done)

			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						lines = nil
						continue
					}
					quit, msg := handleWatchLine(ctx, view, line)
					if quit {
						return nil
					}
					if msg != "" {
						screen.alert(msg, view.Snapshot())
					}
				}
			}
		},
	}

	cmd.Flags().StringVarP(&tabName, "tab", "t", string(viewsync.TabPending), "all, pending, approved, rejected or history")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from config)")
	return cmd
}

// handleWatchLine runs one keyboard command against the view and returns the message to show.
func handleWatchLine(ctx context.Context, view *viewsync.View, line string) (bool, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, ""
	}

	key := strings.ToLower(fields[0])
	switch key {
	case "q", "quit":
		return true, ""
	case "r", "refresh":
		if err := view.Refresh(ctx); err != nil {
			return false, explain("refresh", err).Error()
		}
		return false, ""
	case "a", "x", "d":
	default:
		return false, fmt.Sprintf("unknown command %q (%s)", line, watchHelp)
	}

	if len(fields) != 2 {
		return false, fmt.Sprintf("%s needs a request id (%s)", key, watchHelp)
	}
	id, err := parseID(fields[1])
	if err != nil {
		return false, err.Error()
	}

	if key == "d" {
		if err := view.Delete(ctx, id); err != nil {
			return false, explain("delete", err).Error()
		}
		return false, fmt.Sprintf("Request %d deleted", id)
	}

	status, action, verb := models.StatusApproved, "approve", "approved"
	if key == "x" {
		status, action, verb = models.StatusRejected, "reject", "rejected"
	}
	if _, err := view.Transition(ctx, id, status); err != nil {
		return false, explain(action, err).Error()
	}
	return false, fmt.Sprintf("Request %d %s", id, verb)
}

// readLines forwards stdin lines until EOF or done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// watchScreen serializes redraws and keeps the last command result on screen.
type watchScreen struct {
	mu   sync.Mutex
	out  io.Writer
	tab  viewsync.Tab
	last string
}

func (s *watchScreen) render(state viewsync.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	renderState(s.out, s.tab, state)
	if s.last != "" && !state.Loading {
		fmt.Fprintf(s.out, "\n> %s\n", s.last)
	}
}

func (s *watchScreen) alert(msg string, state viewsync.State) {
	s.mu.Lock()
	s.last = msg
	s.mu.Unlock()
	s.render(state)
}

// renderState redraws the screen for one view snapshot.
func renderState(w io.Writer, tab viewsync.Tab, s viewsync.State) {
	fmt.Fprint(w, "\033[H\033[2J")
	if s.Loading {
		fmt.Fprintln(w, "Loading...")
		return
	}
	fmt.Fprintf(w, "Tab: %s   Last sync: %s\n", tab, s.LastSync.Local().Format("15:04:05"))
	if s.Err != nil {
		fmt.Fprintf(w, "! Refresh failed: %v\n", s.Err)
	}
	fmt.Fprintln(w)
	_ = renderTable(w, tab.Apply(s.Requests))
}
