package updatecheck

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/vitrine-io/vitrine/internal/pkg/metrics"
	fsmutil "github.com/vitrine-io/vitrine/internal/pkg/util/fsm"
)

const (
	// StateBaseline means no update is pending.
	StateBaseline = "baseline"
	// StatePending means a new build was detected and the user has not acknowledged it yet.
	StatePending = "pending"

	eventDetect      = "detect"
	eventAcknowledge = "acknowledge"
	eventReset       = "reset"
)

// stateMachine is the baseline/pending machine. detect is only defined from baseline, which is
// what deduplicates notifications while an update is already pending.
type stateMachine struct {
	*fsm.FSM
}

func newStateMachine() *stateMachine {
	m := &stateMachine{}

	events := fsm.Events{
		{Name: eventDetect, Src: []string{StateBaseline}, Dst: StatePending},
		{Name: eventAcknowledge, Src: []string{StatePending}, Dst: StateBaseline},
		{Name: eventReset, Src: []string{StatePending}, Dst: StateBaseline},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StatePending:  fsmutil.WrapEvent(m.actionEnterPending),
		"enter_" + StateBaseline: fsmutil.WrapEvent(m.actionEnterBaseline),
	}

	m.FSM = fsm.NewFSM(StateBaseline, events, callbacks)
	return m
}

func (m *stateMachine) actionEnterPending(ctx context.Context, e *fsm.Event) error {
	metrics.UpdatePending.Set(1)
	return nil
}

func (m *stateMachine) actionEnterBaseline(ctx context.Context, e *fsm.Event) error {
	metrics.UpdatePending.Set(0)
	return nil
}

func (m *stateMachine) pending() bool {
	return m.Is(StatePending)
}

// fire applies event and reports whether the state changed. Transitions are not abandoned
// when ctx is canceled: state must follow what already happened.
func (m *stateMachine) fire(ctx context.Context, event string) (bool, error) {
	if !m.Can(event) {
		return false, nil
	}
	if err := m.Event(context.WithoutCancel(ctx), event); err != nil {
		if fsmutil.IsRejected(err) {
			return false, nil
		}
		return true, err
	}
	return true, nil
}
