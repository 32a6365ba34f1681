package component

// Phase is one state in the per-instance lifecycle machine.
type Phase uint8

const (
	PhaseCreated    Phase = iota // allocated, handlers bound, state initialized
	PhaseInputBound              // initial input merged
	PhaseMounted                 // first evaluation produced the fragment tree
	PhaseAttached                // present on the live surface
	PhaseUpdating                // a flush is re-evaluating owned fragments
	PhaseDetached                // removed from the live surface
	PhaseDestroyed               // terminal; no hook fires after this
	PhaseErrored                 // evaluation failed; last-good output shown
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "Created"
	case PhaseInputBound:
		return "InputBound"
	case PhaseMounted:
		return "Mounted"
	case PhaseAttached:
		return "Attached"
	case PhaseUpdating:
		return "Updating"
	case PhaseDetached:
		return "Detached"
	case PhaseDestroyed:
		return "Destroyed"
	case PhaseErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// Lifecycle hook names, looked up in the instance handler table.
const (
	HookCreate  = "onCreate"
	HookInput   = "onInput"
	HookMount   = "onMount"
	HookAttach  = "onAttach"
	HookDetach  = "onDetach"
	HookRender  = "onRender"
	HookUpdate  = "onUpdate"
	HookDestroy = "onDestroy"
	HookError   = "onError"
)
