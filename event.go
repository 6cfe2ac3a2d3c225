package xr

import "fmt"

// Event is a runtime event dequeued by PollEvent. The set of variants is
// closed; runtimes report anything they cannot express as UnknownEvent.
type Event interface {
	fmt.Stringer
	isEvent()
}

// EventsLost reports that the runtime's event queue overflowed.
type EventsLost struct {
	LostEventCount uint32
}

// InstanceLossPending announces that the instance is about to be lost.
// The application must destroy the instance and may recreate it later.
type InstanceLossPending struct {
	LossTime Time
}

// SessionStateChanged reports a session lifecycle transition.
type SessionStateChanged struct {
	Session Session
	State   SessionState
	Time    Time
}

// ReferenceSpaceChangePending announces a recentering of a reference space.
type ReferenceSpaceChangePending struct {
	Session             Session
	ReferenceSpaceType  ReferenceSpaceType
	ChangeTime          Time
	PoseValid           bool
	PoseInPreviousSpace Posef
}

// InteractionProfileChanged reports that the active controller profile
// for a top-level path changed.
type InteractionProfileChanged struct {
	Session Session
}

// VisibilityMaskChanged reports a new hidden-area mask for one view.
type VisibilityMaskChanged struct {
	Session   Session
	ViewIndex uint32
}

// PerfSettings reports a performance level change of a runtime domain.
type PerfSettings struct {
	Domain    uint32
	SubDomain uint32
	FromLevel uint32
	ToLevel   uint32
}

// UnknownEvent carries the raw type tag of an event the driver does not model.
type UnknownEvent struct {
	Type uint32
}

func (EventsLost) isEvent()                  {}
func (InstanceLossPending) isEvent()         {}
func (SessionStateChanged) isEvent()         {}
func (ReferenceSpaceChangePending) isEvent() {}
func (InteractionProfileChanged) isEvent()   {}
func (VisibilityMaskChanged) isEvent()       {}
func (PerfSettings) isEvent()                {}
func (UnknownEvent) isEvent()                {}

func (e EventsLost) String() string {
	return fmt.Sprintf("events lost (%d)", e.LostEventCount)
}

func (e InstanceLossPending) String() string {
	return fmt.Sprintf("instance loss pending at %d", e.LossTime)
}

func (e SessionStateChanged) String() string {
	return fmt.Sprintf("session state changed to %s", e.State)
}

func (e ReferenceSpaceChangePending) String() string {
	return fmt.Sprintf("reference space change pending (%s)", e.ReferenceSpaceType)
}

func (InteractionProfileChanged) String() string { return "interaction profile changed" }

func (e VisibilityMaskChanged) String() string {
	return fmt.Sprintf("visibility mask changed (view %d)", e.ViewIndex)
}

func (e PerfSettings) String() string {
	return fmt.Sprintf("perf settings domain %d: %d -> %d", e.Domain, e.FromLevel, e.ToLevel)
}

func (e UnknownEvent) String() string {
	return fmt.Sprintf("unhandled event type %d", e.Type)
}
