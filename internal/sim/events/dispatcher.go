package events

type Phase int

const (
	// PhaseNormal handlers run first, in registration order.
	PhaseNormal Phase = iota
	// PhaseMonitor handlers run after every normal handler of the event has returned.
	PhaseMonitor
)

func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseMonitor:
		return "monitor"
	default:
		return "unknown"
	}
}

type Handler func(Event)

// Listener is a subsystem that binds its handlers to a dispatcher.
type Listener interface {
	Listen(d *Dispatcher)
}

type registered struct {
	owner string
	fn    Handler
}

// Dispatcher routes one event at a time through its phases. It is not safe for
// concurrent use; the session loop is its only caller.
type Dispatcher struct {
	handlers map[Type]*[2][]registered
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[Type]*[2][]registered{}}
}

func (d *Dispatcher) Register(t Type, phase Phase, owner string, fn Handler) {
	if fn == nil || (phase != PhaseNormal && phase != PhaseMonitor) {
		return
	}
	tiers := d.handlers[t]
	if tiers == nil {
		tiers = &[2][]registered{}
		d.handlers[t] = tiers
	}
	tiers[phase] = append(tiers[phase], registered{owner: owner, fn: fn})
}

func (d *Dispatcher) Dispatch(ev Event) {
	if ev == nil {
		return
	}
	tiers := d.handlers[ev.Type()]
	if tiers == nil {
		return
	}
	for _, phase := range []Phase{PhaseNormal, PhaseMonitor} {
		for _, h := range tiers[phase] {
			h.fn(ev)
		}
	}
}

// Owners lists handler owners for t in execution order.
func (d *Dispatcher) Owners(t Type) []string {
	tiers := d.handlers[t]
	if tiers == nil {
		return nil
	}
	out := make([]string, 0, len(tiers[PhaseNormal])+len(tiers[PhaseMonitor]))
	for _, phase := range []Phase{PhaseNormal, PhaseMonitor} {
		for _, h := range tiers[phase] {
			out = append(out, h.owner)
		}
	}
	return out
}
