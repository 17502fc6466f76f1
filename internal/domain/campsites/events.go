package campsites

import "time"

type CampsiteCreated struct {
	CampsiteID CampsiteID
	OwnerID    string
	At         time.Time
}

func (e CampsiteCreated) EventName() string     { return "campsite.created" }
func (e CampsiteCreated) AggregateID() string   { return string(e.CampsiteID) }
func (e CampsiteCreated) OccurredAt() time.Time { return e.At }

type CampsiteActivated struct {
	CampsiteID CampsiteID
	At         time.Time
}

func (e CampsiteActivated) EventName() string     { return "campsite.activated" }
func (e CampsiteActivated) AggregateID() string   { return string(e.CampsiteID) }
func (e CampsiteActivated) OccurredAt() time.Time { return e.At }

type CampsiteSuspended struct {
	CampsiteID CampsiteID
	Reason     string
	At         time.Time
}

func (e CampsiteSuspended) EventName() string     { return "campsite.suspended" }
func (e CampsiteSuspended) AggregateID() string   { return string(e.CampsiteID) }
func (e CampsiteSuspended) OccurredAt() time.Time { return e.At }
