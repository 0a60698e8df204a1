// internal/domain/checklist/draft.go
package checklist

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Draft is the in-progress checklist of one guard. It is mutated only
// through Update and the photo helpers; nothing is validated until Validate.
type Draft struct {
	VigilanteID     int64          `json:"vigilante_id,omitempty"`
	MotorcycleID    int64          `json:"motorcycle_id,omitempty"`
	Type            InspectionType `json:"type"`

	Components map[ComponentKey]Component `json:"components"`

	FacePhoto      *Photo  `json:"face_photo,omitempty"`
	VehiclePhotos  []Photo `json:"vehicle_photos"`
	FuelPhotos     []Photo `json:"fuel_photos"`
	OdometerPhotos []Photo `json:"odometer_photos"`

	OdometerReading     string `json:"odometer_reading"`
	FuelLevel           int    `json:"fuel_level"`
	GeneralObservations string `json:"general_observations"`
	Damages             string `json:"damages"`
	Signature           string `json:"signature,omitempty"`

	// LastSavedID is set by a successful submit; the draft itself is kept.
	LastSavedID *int64    `json:"last_saved_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewDraft returns an empty start-of-shift draft.
func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// Reset restores every field to its default.
func (d *Draft) Reset() {
	*d = Draft{
		Type:           TypeStart,
		Components:     make(map[ComponentKey]Component, len(ComponentOrder)),
		VehiclePhotos:  []Photo{},
		FuelPhotos:     []Photo{},
		OdometerPhotos: []Photo{},
	}
}

// Patch carries the fields to merge; nil pointers are left untouched.
// Components are merged per key so a patch naming only "tires" keeps the rest.
type Patch struct {
	VigilanteID         *int64                     `json:"vigilante_id,omitempty"`
	MotorcycleID        *int64                     `json:"motorcycle_id,omitempty"`
	Type                *InspectionType            `json:"type,omitempty"`
	Components          map[ComponentKey]Component `json:"components,omitempty"`
	FacePhoto           *Photo                     `json:"face_photo,omitempty"`
	VehiclePhotos       *[]Photo                   `json:"vehicle_photos,omitempty"`
	FuelPhotos          *[]Photo                   `json:"fuel_photos,omitempty"`
	OdometerPhotos      *[]Photo                   `json:"odometer_photos,omitempty"`
	OdometerReading     *string                    `json:"odometer_reading,omitempty"`
	FuelLevel           *int                       `json:"fuel_level,omitempty"`
	GeneralObservations *string                    `json:"general_observations,omitempty"`
	Damages             *string                    `json:"damages,omitempty"`
	Signature           *string                    `json:"signature,omitempty"`
}

// Update shallow-merges p into the draft in field order; last write wins.
func (d *Draft) Update(p Patch) {
	if p.VigilanteID != nil {
		d.VigilanteID = *p.VigilanteID
	}
	if p.MotorcycleID != nil {
		d.MotorcycleID = *p.MotorcycleID
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if len(p.Components) > 0 {
		if d.Components == nil {
			d.Components = make(map[ComponentKey]Component, len(ComponentOrder))
		}
		for k, v := range p.Components {
			d.Components[k] = v
		}
	}
	if p.FacePhoto != nil {
		photo := *p.FacePhoto
		d.FacePhoto = &photo
	}
	if p.VehiclePhotos != nil {
		d.VehiclePhotos = append([]Photo{}, (*p.VehiclePhotos)...)
	}
	if p.FuelPhotos != nil {
		d.FuelPhotos = append([]Photo{}, (*p.FuelPhotos)...)
	}
	if p.OdometerPhotos != nil {
		d.OdometerPhotos = append([]Photo{}, (*p.OdometerPhotos)...)
	}
	if p.OdometerReading != nil {
		d.OdometerReading = *p.OdometerReading
	}
	if p.FuelLevel != nil {
		d.FuelLevel = *p.FuelLevel
	}
	if p.GeneralObservations != nil {
		d.GeneralObservations = *p.GeneralObservations
	}
	if p.Damages != nil {
		d.Damages = *p.Damages
	}
	if p.Signature != nil {
		d.Signature = *p.Signature
	}
}

// PhotoSlot names the draft collection a captured photo goes into.
type PhotoSlot string

const (
	SlotFace     PhotoSlot = "face"
	SlotVehicle  PhotoSlot = "vehicle"
	SlotFuel     PhotoSlot = "fuel"
	SlotOdometer PhotoSlot = "odometer"
)

// AddPhoto appends to the slot's list (face replaces the single photo).
func (d *Draft) AddPhoto(slot PhotoSlot, p Photo) error {
	switch slot {
	case SlotFace:
		p.Category = ""
		d.FacePhoto = &p
	case SlotVehicle:
		if p.Category != "" && !p.Category.Known() {
			return fmt.Errorf("unknown vehicle photo category %q", p.Category)
		}
		d.VehiclePhotos = append(d.VehiclePhotos, p)
	case SlotFuel:
		p.Category = ""
		d.FuelPhotos = append(d.FuelPhotos, p)
	case SlotOdometer:
		p.Category = ""
		d.OdometerPhotos = append(d.OdometerPhotos, p)
	default:
		return fmt.Errorf("unknown photo slot %q", slot)
	}
	return nil
}

// SetFacePhoto replaces the single face photo.
func (d *Draft) SetFacePhoto(source string) {
	_ = d.AddPhoto(SlotFace, Photo{Source: source})
}

func (d *Draft) AppendVehiclePhoto(source string, category PhotoCategory) error {
	return d.AddPhoto(SlotVehicle, Photo{Source: source, Category: category})
}

func (d *Draft) AppendFuelPhoto(source string) {
	_ = d.AddPhoto(SlotFuel, Photo{Source: source})
}

func (d *Draft) AppendOdometerPhoto(source string) {
	_ = d.AddPhoto(SlotOdometer, Photo{Source: source})
}

// RemovePhoto drops the photo at index from the slot's list.
func (d *Draft) RemovePhoto(slot PhotoSlot, index int) error {
	remove := func(list []Photo) ([]Photo, error) {
		if index < 0 || index >= len(list) {
			return list, fmt.Errorf("photo index %d out of range", index)
		}
		return append(list[:index:index], list[index+1:]...), nil
	}

	var err error
	switch slot {
	case SlotFace:
		d.FacePhoto = nil
	case SlotVehicle:
		d.VehiclePhotos, err = remove(d.VehiclePhotos)
	case SlotFuel:
		d.FuelPhotos, err = remove(d.FuelPhotos)
	case SlotOdometer:
		d.OdometerPhotos, err = remove(d.OdometerPhotos)
	default:
		err = fmt.Errorf("unknown photo slot %q", slot)
	}
	return err
}

// ValidationError lists every missing or malformed field at submit time.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "checklist incomplete: " + strings.Join(e.Fields, ", ")
}

// HTTPStatus lets the response layer answer 422.
func (e *ValidationError) HTTPStatus() int { return 422 }

// Validate runs the submit-time checks. A nil return means the draft may be saved.
func (d *Draft) Validate() error {
	var missing []string
	if d.VigilanteID <= 0 {
		missing = append(missing, "vigilante")
	}
	if d.MotorcycleID <= 0 {
		missing = append(missing, "motorcycle")
	}
	if strings.TrimSpace(d.Signature) == "" {
		missing = append(missing, "signature")
	}
	if !d.Type.Valid() {
		missing = append(missing, "type")
	}
	if d.FuelLevel < 0 || d.FuelLevel > 100 {
		missing = append(missing, "fuel_level")
	}
	var bad []string
	for k, v := range d.Components {
		if !k.Valid() || !v.Status.Valid() {
			bad = append(bad, "components."+string(k))
		}
	}
	sort.Strings(bad)
	missing = append(missing, bad...)
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ToChecklist copies the draft into a record ready for insert. Names and
// plate are resolved by the caller.
func (d *Draft) ToChecklist() *Checklist {
	components := make(map[ComponentKey]Component, len(d.Components))
	for k, v := range d.Components {
		components[k] = v
	}

	c := &Checklist{
		VigilanteID:         d.VigilanteID,
		MotorcycleID:        d.MotorcycleID,
		Type:                d.Type,
		Components:          components,
		VehiclePhotos:       append([]Photo{}, d.VehiclePhotos...),
		FuelPhotos:          append([]Photo{}, d.FuelPhotos...),
		OdometerPhotos:      append([]Photo{}, d.OdometerPhotos...),
		OdometerReading:     d.OdometerReading,
		FuelLevel:           d.FuelLevel,
		GeneralObservations: d.GeneralObservations,
		Damages:             d.Damages,
		Signature:           d.Signature,
		Status:              RecordCompleted,
	}
	if d.FacePhoto != nil {
		face := *d.FacePhoto
		c.FacePhoto = &face
	}
	return c
}
