// internal/domain/checklist/entity.go
package checklist

import (
	"fmt"
	"time"
)

type InspectionType string
type ComponentStatus string
type RecordStatus string
type PhotoCategory string

const (
	TypeStart InspectionType = "start"
	TypeEnd   InspectionType = "end"

	StatusGood        ComponentStatus = "good"
	StatusRegular     ComponentStatus = "regular"
	StatusNeedsRepair ComponentStatus = "needs_repair"
	StatusNA          ComponentStatus = "na"
	StatusUnset       ComponentStatus = ""

	RecordCompleted RecordStatus = "completed"

	CategoryFront      PhotoCategory = "front"
	CategoryBack       PhotoCategory = "back"
	CategoryLeft       PhotoCategory = "left"
	CategoryRight      PhotoCategory = "right"
	CategoryAdditional PhotoCategory = "additional"
)

// ComponentKey names one of the nine inspected motorcycle components.
type ComponentKey string

const (
	Tires      ComponentKey = "tires"
	Brakes     ComponentKey = "brakes"
	EngineOil  ComponentKey = "engine_oil"
	Coolant    ComponentKey = "coolant"
	Lights     ComponentKey = "lights"
	Electrical ComponentKey = "electrical"
	Suspension ComponentKey = "suspension"
	Cleaning   ComponentKey = "cleaning"
	Leaks      ComponentKey = "leaks"
)

// ComponentOrder is the canonical order used by forms and reports.
var ComponentOrder = []ComponentKey{
	Tires, Brakes, EngineOil, Coolant, Lights, Electrical, Suspension, Cleaning, Leaks,
}

func (k ComponentKey) Valid() bool {
	for _, c := range ComponentOrder {
		if c == k {
			return true
		}
	}
	return false
}

func (s ComponentStatus) Valid() bool {
	switch s {
	case StatusGood, StatusRegular, StatusNeedsRepair, StatusNA, StatusUnset:
		return true
	}
	return false
}

func (t InspectionType) Valid() bool {
	return t == TypeStart || t == TypeEnd
}

func (c PhotoCategory) Known() bool {
	switch c {
	case CategoryFront, CategoryBack, CategoryLeft, CategoryRight, CategoryAdditional:
		return true
	}
	return false
}

// Component is the status/observation pair recorded for one component.
type Component struct {
	Status      ComponentStatus `json:"status"`
	Observation string          `json:"observation,omitempty"`
}

// Photo is a captured image. Source is a data URI or a fetchable URL.
// Category is only meaningful for vehicle photos and may be empty.
type Photo struct {
	Source   string        `json:"source"`
	Category PhotoCategory `json:"category,omitempty"`
}

// Checklist is one persisted inspection event.
type Checklist struct {
	ID              int64          `json:"id" db:"id"`
	CondominiumID   int64          `json:"condominium_id" db:"condominium_id"`
	VigilanteID     int64          `json:"vigilante_id" db:"vigilante_id"`
	VigilanteName   string         `json:"vigilante_name" db:"vigilante_name"`
	MotorcycleID    int64          `json:"motorcycle_id" db:"motorcycle_id"`
	MotorcyclePlate string         `json:"motorcycle_plate" db:"motorcycle_plate"`
	Type            InspectionType `json:"type" db:"type"`

	Components map[ComponentKey]Component `json:"components" db:"components"`

	FacePhoto      *Photo  `json:"face_photo,omitempty" db:"face_photo"`
	VehiclePhotos  []Photo `json:"vehicle_photos" db:"vehicle_photos"`
	FuelPhotos     []Photo `json:"fuel_photos" db:"fuel_photos"`
	OdometerPhotos []Photo `json:"odometer_photos" db:"odometer_photos"`

	OdometerReading     string `json:"odometer_reading" db:"odometer_reading"`
	FuelLevel           int    `json:"fuel_level" db:"fuel_level"`
	GeneralObservations string `json:"general_observations" db:"general_observations"`
	Damages             string `json:"damages" db:"damages"`
	Signature           string `json:"signature" db:"signature"`

	Status    RecordStatus `json:"status" db:"status"`
	CreatedBy int64        `json:"created_by" db:"created_by"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Component returns the entry for key, unset when absent.
func (c *Checklist) Component(key ComponentKey) Component {
	if c.Components == nil {
		return Component{}
	}
	return c.Components[key]
}

// Summary is the lightweight list-view projection (no image payloads).
type Summary struct {
	ID              int64          `json:"id"`
	CondominiumID   int64          `json:"condominium_id"`
	VigilanteID     int64          `json:"vigilante_id"`
	VigilanteName   string         `json:"vigilante_name"`
	MotorcycleID    int64          `json:"motorcycle_id"`
	MotorcyclePlate string         `json:"motorcycle_plate"`
	Type            InspectionType `json:"type"`
	FuelLevel       int            `json:"fuel_level"`
	Status          RecordStatus   `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}

// SetStats describes the checklist set of a condominium at one instant.
// It backs the bulk-delete confirmation token.
type SetStats struct {
	Count    int64      `json:"count"`
	LatestAt *time.Time `json:"latest_at,omitempty"`
}

// MissingEntityError reports a checklist whose guard or motorcycle no
// longer exists, so no report can be produced for it.
type MissingEntityError struct {
	Entity      string
	ID          int64
	ChecklistID int64
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("checklist %d references missing %s %d", e.ChecklistID, e.Entity, e.ID)
}

// HTTPStatus lets the response layer answer 409.
func (e *MissingEntityError) HTTPStatus() int { return 409 }
