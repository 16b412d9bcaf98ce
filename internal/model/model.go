package model

import "time"

// Role is an optional tag on a User. The zero value means an ordinary patient.
type Role string

const RoleAdmin Role = "admin"

type Service struct {
	ID    string   `json:"_id,omitempty" bson:"_id,omitempty"`
	Name  string   `json:"name" bson:"name" validate:"required"`
	Slots []string `json:"slots" bson:"slots" validate:"dive,required"`
}

type ServiceName struct {
	Name string `json:"name" bson:"name"`
}

// Booking is uniquely keyed in practice by (Treatment, Date, PatientEmail).
type Booking struct {
	ID           string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Treatment    string    `json:"treatment" bson:"treatment" validate:"required"`
	Date         string    `json:"date" bson:"date" validate:"required"`
	PatientEmail string    `json:"patientEmail" bson:"patientEmail" validate:"required,email"`
	Slot         string    `json:"slot" bson:"slot" validate:"required"`
	Patient      string    `json:"patient" bson:"patient"`
	CreatedAt    time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// Key returns the duplicate-detection key. Slot is deliberately not part of it.
func (b Booking) Key() BookingKey {
	return BookingKey{Treatment: b.Treatment, Date: b.Date, PatientEmail: b.PatientEmail}
}

type BookingKey struct {
	Treatment    string
	Date         string
	PatientEmail string
}

// Profile holds the free-form fields a client sends on login/registration.
// A "role" entry is honoured only when explicitly present.
type Profile map[string]any

type User struct {
	Email   string  `json:"email" bson:"email"`
	Role    Role    `json:"role,omitempty" bson:"role,omitempty"`
	Profile Profile `json:"profile,omitempty" bson:"profile,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Doctor struct {
	ID        string `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string `json:"name" bson:"name" validate:"required"`
	Email     string `json:"email" bson:"email" validate:"required,email"`
	Specialty string `json:"specialty" bson:"specialty"`
	Image     string `json:"img,omitempty" bson:"img,omitempty"`
}

// WriteResult reports the effect of a store mutation in the shape the
// document store would.
type WriteResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId,omitempty"`
	Matched      int64  `json:"matchedCount"`
	Modified     int64  `json:"modifiedCount"`
	Upserted     int64  `json:"upsertedCount"`
	Deleted      int64  `json:"deletedCount"`
}
