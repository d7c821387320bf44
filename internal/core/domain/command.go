package domain

import "fmt"

// PlannerRequest is the family of operator commands handled by the planner
// actor, arriving from MQTT command topics or the HTTP surface.

type PlannerRequest interface {
	ActorRequest
	PlannerCommand() string
}

type PlannerRequestMixIn struct {
	ActorRequestMixIn
}

func (r PlannerRequestMixIn) PlannerCommand() string {
	return fmt.Sprintf("%T", r)
}

// GridChargeOverrideRequest forces grid charging on or off manually. An
// override sticks until the next trigger, which recomputes the full decision
// from scratch.
type GridChargeOverrideRequest struct {
	PlannerRequestMixIn
	Enable bool
}

type GridChargeOverrideResponse struct {
	ActorResponseMixIn
	Changed bool
}

// SetMinReserveSoCRequest adjusts the minimum reserve clamp at runtime (HA
// number entity). Values above 100 are rejected by the command parser.
type SetMinReserveSoCRequest struct {
	PlannerRequestMixIn
	MinReserveSoC uint
}

type SetMinReserveSoCResponse struct {
	ActorResponseMixIn
	MinReserveSoC uint
}

// ensure interface compliance
var _ PlannerRequest = (*GridChargeOverrideRequest)(nil)
var _ PlannerRequest = (*SetMinReserveSoCRequest)(nil)
