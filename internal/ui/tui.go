// ABOUTME: Server TUI program wrapper
// ABOUTME: Runs the bubbletea program and feeds it controller snapshots
package ui

import (
	"github.com/audiospy/audiospy-go/internal/server"
	tea "github.com/charmbracelet/bubbletea"
)

// ServerView shows live server state. It implements server.Observer.
type ServerView struct {
	port     int
	program  *tea.Program
	updates  chan server.Status
	quitChan chan struct{}
	done     chan struct{}
}

// NewServerView creates a TUI for a server on port
func NewServerView(port int) *ServerView {
	v := &ServerView{
		port:     port,
		updates:  make(chan server.Status, 1),
		quitChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	v.program = tea.NewProgram(NewModel(port, v.quitChan), tea.WithAltScreen())
	return v
}

// Run runs the TUI until the user quits or Stop is called
func (v *ServerView) Run() error {
	go func() {
		for {
			select {
			case status := <-v.updates:
				v.program.Send(statusMsg(status))
			case <-v.done:
				return
			}
		}
	}()

	_, err := v.program.Run()
	return err
}

// Update queues a snapshot. It never blocks; when the TUI falls behind the
// pending snapshot is replaced, so the latest state is always shown.
// Only the controller goroutine calls it.
func (v *ServerView) Update(status server.Status) {
	for {
		select {
		case v.updates <- status:
			return
		default:
		}
		select {
		case <-v.updates:
		default:
		}
	}
}

// Stop quits the TUI
func (v *ServerView) Stop() {
	select {
	case <-v.done:
		return
	default:
		close(v.done)
	}
	v.program.Quit()
}

// QuitChan signals when the user asked to quit
func (v *ServerView) QuitChan() <-chan struct{} {
	return v.quitChan
}
