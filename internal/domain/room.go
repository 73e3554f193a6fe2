package domain

import "github.com/shopspring/decimal"

// RoomStatus represents the availability state of a room.
type RoomStatus string

const (
	RoomFree     RoomStatus = "free"
	RoomOccupied RoomStatus = "occupied"
	RoomCleaning RoomStatus = "cleaning"
	RoomClosed   RoomStatus = "closed"
)

// Event represents an action that triggers a room status transition.
type Event string

const (
	// Core transitions, driven exclusively by the billing engine.
	EventCheckIn  Event = "check_in"
	EventCheckOut Event = "check_out"

	// External transitions, driven by housekeeping/administration.
	EventStartCleaning  Event = "start_cleaning"
	EventFinishCleaning Event = "finish_cleaning"
	EventCloseRoom      Event = "close_room"
	EventReopenRoom     Event = "reopen_room"
)

// Transition defines a valid status change: an event moves a room from Src to Dst.
type Transition struct {
	Event Event
	Src   RoomStatus
	Dst   RoomStatus
}

// Transitions defines all valid status changes in the room lifecycle.
// This is domain knowledge consumed by the FSM adapter. Check-in is only
// valid from "free"; cleaning and closed rooms reject it.
var Transitions = []Transition{
	{Event: EventCheckIn, Src: RoomFree, Dst: RoomOccupied},
	{Event: EventCheckOut, Src: RoomOccupied, Dst: RoomFree},
	{Event: EventStartCleaning, Src: RoomFree, Dst: RoomCleaning},
	{Event: EventFinishCleaning, Src: RoomCleaning, Dst: RoomFree},
	{Event: EventCloseRoom, Src: RoomFree, Dst: RoomClosed},
	{Event: EventCloseRoom, Src: RoomCleaning, Dst: RoomClosed},
	{Event: EventReopenRoom, Src: RoomClosed, Dst: RoomFree},
}

// ExternalStatusEvent resolves an externally requested status change to the
// event that performs it. Check-in and check-out are reserved for the billing
// engine, so a request that would need one of them reports no match.
func ExternalStatusEvent(current, target RoomStatus) (Event, bool) {
	for _, t := range Transitions {
		if t.Event == EventCheckIn || t.Event == EventCheckOut {
			continue
		}
		if t.Src == current && t.Dst == target {
			return t.Event, true
		}
	}
	return "", false
}

// RoomType is the immutable rate card referenced by rooms.
type RoomType struct {
	ID        string
	Name      string
	BasePrice decimal.Decimal
	// HalfHourPrice is the surcharge per extra 30-minute block. A nil value
	// means the room type bills a flat BasePrice regardless of duration.
	HalfHourPrice *decimal.Decimal
	NightPrice    decimal.Decimal
}

// Room is a rentable unit tied to a rate card.
type Room struct {
	ID         string
	Number     string
	RoomTypeID string
	// TypeName is denormalized from the rate card on reads for display.
	TypeName string
	Status   RoomStatus
}

// NewRoom creates a room in the initial "free" state.
func NewRoom(id, number, roomTypeID string) Room {
	return Room{
		ID:         id,
		Number:     number,
		RoomTypeID: roomTypeID,
		Status:     RoomFree,
	}
}
