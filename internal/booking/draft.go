package booking

import "github.com/oceanview/resort-booking/internal/model"

// Draft is a reservation request being assembled by a guest: the room,
// the stay and the guest's contact details.  It is not persisted.
type Draft struct {
	RoomID uint64 `json:"roomId" validate:"required"`
	Stay
	GuestAddress string `json:"guestAddress" validate:"required,max=255"`
	GuestPhone   string `json:"guestPhone" validate:"required,phone,max=32"`
	Notes        string `json:"notes" validate:"max=1000"`
}

// Validate checks the contact fields and the stay.  A draft with a zero
// night count is always rejected.
func (d Draft) Validate(today model.Date) error {
	verr := &ValidationError{}
	if err := ValidateStruct(d); err != nil {
		fe, ok := err.(*ValidationError)
		if !ok {
			return err
		}
		verr = fe
	}
	if err := d.Stay.Validate(today); err != nil {
		for k, v := range err.(*ValidationError).Fields {
			verr.Add(k, v)
		}
	}
	return verr.OrNil()
}
