package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }
func strp(v string) *string { return &v }

func TestDraftUpdateMergesLastWriteWins(t *testing.T) {
	d := NewDraft()

	d.Update(Patch{VigilanteID: int64p(3), OdometerReading: strp("1200")})
	d.Update(Patch{
		Components: map[ComponentKey]Component{Tires: {Status: StatusGood}},
	})
	d.Update(Patch{
		OdometerReading: strp("1250"),
		Components:      map[ComponentKey]Component{Brakes: {Status: StatusRegular, Observation: "pastilha gasta"}},
	})

	assert.Equal(t, int64(3), d.VigilanteID)
	assert.Equal(t, "1250", d.OdometerReading)
	assert.Equal(t, StatusGood, d.Components[Tires].Status)
	assert.Equal(t, "pastilha gasta", d.Components[Brakes].Observation)
	assert.Equal(t, TypeStart, d.Type)
}

func TestDraftResetRestoresDefaults(t *testing.T) {
	d := NewDraft()
	d.Update(Patch{VigilanteID: int64p(1), MotorcycleID: int64p(2), Signature: strp("data:image/png;base64,AA==")})
	require.NoError(t, d.AddPhoto(SlotFuel, Photo{Source: "x"}))

	d.Reset()

	assert.Zero(t, d.VigilanteID)
	assert.Zero(t, d.MotorcycleID)
	assert.Empty(t, d.Signature)
	assert.Empty(t, d.FuelPhotos)
	assert.NotNil(t, d.Components)
}

func TestDraftValidateListsEveryMissingField(t *testing.T) {
	cases := []struct {
		name    string
		patch   Patch
		missing []string
	}{
		{"empty", Patch{}, []string{"vigilante", "motorcycle", "signature"}},
		{"no guard", Patch{MotorcycleID: int64p(1), Signature: strp("sig")}, []string{"vigilante"}},
		{"no vehicle", Patch{VigilanteID: int64p(1), Signature: strp("sig")}, []string{"motorcycle"}},
		{"no signature", Patch{VigilanteID: int64p(1), MotorcycleID: int64p(1), Signature: strp("   ")}, []string{"signature"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDraft()
			d.Update(tc.patch)

			err := d.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.missing, verr.Fields)
		})
	}
}

func TestDraftValidateRejectsUnknownComponentStatus(t *testing.T) {
	d := NewDraft()
	d.Update(Patch{
		VigilanteID:  int64p(1),
		MotorcycleID: int64p(1),
		Signature:    strp("sig"),
		Components:   map[ComponentKey]Component{Tires: {Status: "excellent"}},
	})

	var verr *ValidationError
	require.ErrorAs(t, d.Validate(), &verr)
	assert.Equal(t, []string{"components.tires"}, verr.Fields)
}

func TestDraftPhotoOrderIsAppendOrder(t *testing.T) {
	d := NewDraft()
	for _, src := range []string{"A", "B", "C"} {
		require.NoError(t, d.AddPhoto(SlotVehicle, Photo{Source: src, Category: CategoryFront}))
	}

	got := make([]string, 0, 3)
	for _, p := range d.VehiclePhotos {
		got = append(got, p.Source)
	}
	assert.Equal(t, []string{"A", "B", "C"}, got)

	require.NoError(t, d.RemovePhoto(SlotVehicle, 1))
	assert.Equal(t, "C", d.VehiclePhotos[1].Source)
	assert.Error(t, d.RemovePhoto(SlotVehicle, 7))
}

func TestDraftSlotHelpers(t *testing.T) {
	d := NewDraft()
	d.SetFacePhoto("face-1")
	d.SetFacePhoto("face-2")
	require.NoError(t, d.AppendVehiclePhoto("left", CategoryLeft))
	require.NoError(t, d.AppendVehiclePhoto("legacy", ""))
	d.AppendFuelPhoto("fuel")
	d.AppendOdometerPhoto("odo-1")
	d.AppendOdometerPhoto("odo-2")

	assert.Equal(t, "face-2", d.FacePhoto.Source)
	assert.Equal(t, []Photo{{Source: "left", Category: CategoryLeft}, {Source: "legacy"}}, d.VehiclePhotos)
	assert.Len(t, d.FuelPhotos, 1)
	assert.Equal(t, "odo-2", d.OdometerPhotos[1].Source)
	assert.Error(t, d.AppendVehiclePhoto("roof", "roof"))
}

func TestDraftRejectsUnknownCategory(t *testing.T) {
	d := NewDraft()
	assert.Error(t, d.AddPhoto(SlotVehicle, Photo{Source: "x", Category: "roof"}))
	assert.Error(t, d.AddPhoto("trunk", Photo{Source: "x"}))
}

func TestToChecklistCopiesAndMarksCompleted(t *testing.T) {
	d := NewDraft()
	d.Update(Patch{VigilanteID: int64p(4), MotorcycleID: int64p(9), Signature: strp("sig")})
	require.NoError(t, d.AddPhoto(SlotFace, Photo{Source: "face"}))

	c := d.ToChecklist()
	assert.Equal(t, RecordCompleted, c.Status)
	assert.Equal(t, "face", c.FacePhoto.Source)

	d.FacePhoto.Source = "changed"
	assert.Equal(t, "face", c.FacePhoto.Source)
}
