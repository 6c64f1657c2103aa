// Package router keeps the chat UI's screen stack.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/fxposquad/termbot/internal/screen"
)

// PushScreenMsg opens Screen on top of the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg goes back one screen. The root screen is never popped.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen without growing the stack.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// Router owns the screen stack. Screens leaving the stack are closed when
// they implement screen.Closer.
type Router struct {
	stack []screen.Screen
}

// New creates a Router with root at the bottom and then each of above
// stacked in order; the last one is active.
func New(root screen.Screen, above ...screen.Screen) *Router {
	return &Router{stack: append([]screen.Screen{root}, above...)}
}

func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	cmd := closeScreen(r.Active())
	r.stack = r.stack[:len(r.stack)-1]
	return cmd
}

func (r *Router) Replace(s screen.Screen) tea.Cmd {
	cmd := closeScreen(r.Active())
	r.stack[len(r.stack)-1] = s
	return tea.Batch(cmd, s.Init())
}

func closeScreen(s screen.Screen) tea.Cmd {
	if c, ok := s.(screen.Closer); ok {
		return c.Close()
	}
	return nil
}

// Active returns the top screen.
func (r *Router) Active() screen.Screen {
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Update applies navigation messages and forwards everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	}

	updated, cmd := r.Active().Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

func (r *Router) View(width, height int) string {
	return r.Active().View(width, height)
}
