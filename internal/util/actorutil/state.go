package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorWithStates gives an actor named states on top of protoactor's
// Behavior stack. Embed it and Become the initial state in the constructor.
type ActorWithStates struct {
	Behavior actor.Behavior
}

// ActorState is one named receive state. Name feeds health responses
// and log lines.
type ActorState interface {
	Name() string
	Receive(actor.Context)
}

func (s *ActorWithStates) Become(state ActorState) {
	s.Behavior.Become(state.Receive)
}

func (s *ActorWithStates) BecomeStacked(state ActorState) {
	s.Behavior.BecomeStacked(state.Receive)
}

func (s *ActorWithStates) UnbecomeStacked() {
	s.Behavior.UnbecomeStacked()
}
