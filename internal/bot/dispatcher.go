package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/bot/handlers"
	"github.com/fitgram/exercise-bot/internal/state"
)

// Dispatcher resolves a text message to the sender's pending continuation and
// invokes the handler registered for its state.
type Dispatcher struct {
	machine       state.Machine
	stateHandlers map[state.State]handlers.StateHandler
	log           *slog.Logger
	mu            sync.RWMutex
}

func NewDispatcher(machine state.Machine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		machine:       machine,
		stateHandlers: make(map[state.State]handlers.StateHandler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.StateHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Resolve returns the handler bound to the sender's open continuation, or
// nil when the user is idle so the message falls through to the command
// table. Storage errors degrade to nil: a broken state read must not make
// commands unreachable.
func (d *Dispatcher) Resolve(c telebot.Context) handlers.Handler {
	if c == nil || c.Sender() == nil {
		return nil
	}

	ctx := context.Background()
	userID := c.Sender().ID

	pending, err := d.machine.Pending(ctx, userID)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			d.log.Error("failed to load pending continuation", "user_id", userID, "error", err)
		}
		return nil
	}

	if pending == nil || pending.Current == state.StateIdle {
		return nil
	}

	handler := d.getHandler(pending.Current)
	if handler == nil {
		d.log.Info("no handler registered for state", "state", pending.Current, "user_id", userID)
		return nil
	}

	return func(ctx telebot.Context) error {
		return handler(ctx, pending)
	}
}

func (d *Dispatcher) getHandler(s state.State) handlers.StateHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
