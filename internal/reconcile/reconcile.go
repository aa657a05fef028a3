// Package reconcile turns a board drag gesture into at most one status
// update and reports how it ended.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
)

// FailedMessage is shown when a drop fails without a server message.
const FailedMessage = "Something went wrong"

// ErrDragFinished is returned when Drop is called on a drag that already ended.
var ErrDragFinished = errors.New("drag already finished")

// State is the position of a drag in its lifecycle.
type State int

const (
	Idle State = iota
	Dragging
	Committing
	RollingBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	case RollingBack:
		return "rolling_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is how a drop ended.
type Outcome int

const (
	// NoOp means no request was sent.
	NoOp Outcome = iota
	// Committed means the server accepted the new status.
	Committed
	// RolledBack means the server rejected it; the collection was never changed.
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case NoOp:
		return "noop"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes a finished drop.
type Result struct {
	Outcome Outcome
	TaskID  int64
	From    model.Status
	To      model.Status

	// Message is the user-facing failure text when Outcome is RolledBack.
	Message string
	Err     error
}

// Mutator performs a status update followed by a re-sync.
type Mutator interface {
	MutateStatus(ctx context.Context, taskID int64, status model.Status) error
}

// Transition is reported to the observer on every state change.
type Transition struct {
	TaskID int64
	From   State
	To     State
}

// Reconciler starts drags against one task collection.
type Reconciler struct {
	mut      Mutator
	log      logrus.FieldLogger
	observer func(Transition)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithObserver registers fn to receive every state transition.
func WithObserver(fn func(Transition)) Option {
	return func(r *Reconciler) { r.observer = fn }
}

// New returns a Reconciler that commits through mut.
func New(mut Mutator, log logrus.FieldLogger, opts ...Option) *Reconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Reconciler{mut: mut, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin picks up task. Drags are independent; several may be live at once.
func (r *Reconciler) Begin(task model.Task) *Drag {
	d := &Drag{r: r, task: task, state: Idle}
	d.transition(Dragging)
	return d
}

// Drag is a single pick-up/drop gesture.
type Drag struct {
	r    *Reconciler
	task model.Task

	mu    sync.Mutex
	state State
	done  bool
}

// Task returns the task being dragged, as it was when picked up.
func (d *Drag) Task() model.Task {
	return d.task
}

// State returns the current state of the drag.
func (d *Drag) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Cancel abandons the drag without a request. Cancelling a finished drag
// is a no-op.
func (d *Drag) Cancel() {
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		return
	}
	d.done = true
	d.mu.Unlock()
	d.transition(Idle)
}

// Drop releases the drag over dest. A nil dest means the gesture ended
// outside any column. At most one request is sent per drag.
func (d *Drag) Drop(ctx context.Context, dest *model.Status) (Result, error) {
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		return Result{}, ErrDragFinished
	}
	d.done = true
	d.mu.Unlock()

	res := Result{Outcome: NoOp, TaskID: d.task.ID, From: d.task.Status}

	if dest == nil || projection.ColumnIndex(*dest) < 0 || *dest == d.task.Status {
		if dest != nil {
			res.To = *dest
		}
		d.transition(Idle)
		return res, nil
	}
	res.To = *dest

	log := d.r.log.WithFields(logrus.Fields{
		"op":      "drop",
		"task_id": d.task.ID,
		"from":    d.task.Status,
		"status":  *dest,
	})

	d.transition(Committing)
	err := d.r.mut.MutateStatus(ctx, d.task.ID, *dest)
	if err == nil {
		res.Outcome = Committed
		d.transition(Idle)
		log.Info("drop committed")
		return res, nil
	}

	d.transition(RollingBack)
	res.Outcome = RolledBack
	res.Err = err
	res.Message = api.Message(err, FailedMessage)
	d.transition(Idle)
	log.WithError(err).Warn("drop rolled back")
	return res, nil
}

func (d *Drag) transition(to State) {
	d.mu.Lock()
	from := d.state
	d.state = to
	d.mu.Unlock()
	if d.r.observer != nil && from != to {
		d.r.observer(Transition{TaskID: d.task.ID, From: from, To: to})
	}
}
