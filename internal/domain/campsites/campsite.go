package campsites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campbook/internal/domain/booking"
	"campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/events"
)

var (
	ErrCampsiteNotFound = errors.New("campsites: not found")
	ErrNameRequired     = errors.New("campsites: name is required")
	ErrMaxGuests        = errors.New("campsites: max guests must be at least 1")
	ErrNightsRange      = errors.New("campsites: min nights must be <= max nights")
	ErrInvalidState     = errors.New("campsites: invalid state transition")
	ErrNotBookable      = errors.New("campsites: campsite is not accepting bookings")
)

type CampsiteID string

type State string

const (
	StateDraft     State = "DRAFT"
	StateActive    State = "ACTIVE"
	StateSuspended State = "SUSPENDED"
)

type Category string

const (
	CategoryTent     Category = "tent"
	CategoryRV       Category = "rv"
	CategoryCabin    Category = "cabin"
	CategoryGlamping Category = "glamping"
)

type Location struct {
	City    string
	State   string
	Country string
	Lat     float64
	Lon     float64
}

type Campsite struct {
	ID                 CampsiteID
	OwnerID            string
	Name               string
	Slug               string
	Description        string
	Category           Category
	Location           Location
	Amenities          []string
	MaxGuests          int
	PetsAllowed        bool
	MinNights          int
	MaxNights          int
	CancellationPolicy booking.CancellationPolicy
	Pricing            pricing.Rules
	Discounts          []pricing.Discount
	Featured           bool
	Rating             float64
	State              State
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id CampsiteID) (*Campsite, error)
	Save(ctx context.Context, campsite *Campsite) error
	List(ctx context.Context, params ListParams) (ListResult, error)
}

type CreateParams struct {
	ID                 CampsiteID
	OwnerID            string
	Name               string
	Slug               string
	Description        string
	Category           Category
	Location           Location
	Amenities          []string
	MaxGuests          int
	PetsAllowed        bool
	MinNights          int
	MaxNights          int
	CancellationPolicy booking.CancellationPolicy
	Pricing            pricing.Rules
	Discounts          []pricing.Discount
	Featured           bool
	Rating             float64
	Now                time.Time
}

func NewCampsite(params CreateParams) (*Campsite, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("campsites: id is required")
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrNameRequired
	}
	if params.MaxGuests < 1 {
		return nil, ErrMaxGuests
	}
	if params.MaxNights > 0 && params.MinNights > params.MaxNights {
		return nil, ErrNightsRange
	}
	policy := params.CancellationPolicy
	if policy == "" {
		policy = booking.PolicyModerate
	}
	if !policy.Valid() {
		return nil, booking.ErrUnknownPolicy
	}
	if err := params.Pricing.Validate(); err != nil {
		return nil, fmt.Errorf("campsites: pricing: %w", err)
	}
	slug := strings.TrimSpace(params.Slug)
	if slug == "" {
		slug = Slugify(params.Name)
	}
	now := params.Now.UTC()
	c := &Campsite{
		ID:                 params.ID,
		OwnerID:            params.OwnerID,
		Name:               strings.TrimSpace(params.Name),
		Slug:               slug,
		Description:        strings.TrimSpace(params.Description),
		Category:           params.Category,
		Location:           params.Location,
		Amenities:          append([]string(nil), params.Amenities...),
		MaxGuests:          params.MaxGuests,
		PetsAllowed:        params.PetsAllowed,
		MinNights:          params.MinNights,
		MaxNights:          params.MaxNights,
		CancellationPolicy: policy,
		Pricing:            params.Pricing,
		Discounts:          append([]pricing.Discount(nil), params.Discounts...),
		Featured:           params.Featured,
		Rating:             params.Rating,
		State:              StateDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	c.Record(CampsiteCreated{CampsiteID: c.ID, OwnerID: c.OwnerID, At: now})
	return c, nil
}

func (c *Campsite) Activate(now time.Time) error {
	if c.State == StateActive {
		return nil
	}
	c.State = StateActive
	c.UpdatedAt = now.UTC()
	c.Record(CampsiteActivated{CampsiteID: c.ID, At: c.UpdatedAt})
	return nil
}

func (c *Campsite) Suspend(reason string, now time.Time) error {
	if c.State != StateActive {
		return ErrInvalidState
	}
	c.State = StateSuspended
	c.UpdatedAt = now.UTC()
	c.Record(CampsiteSuspended{CampsiteID: c.ID, Reason: reason, At: c.UpdatedAt})
	return nil
}

// EnsureBookable fails unless the campsite is active.
func (c *Campsite) EnsureBookable() error {
	if c.State != StateActive {
		return ErrNotBookable
	}
	return nil
}

func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
