package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"firecert/internal/forms"
	"firecert/internal/model"
	"firecert/internal/repository"
	"firecert/internal/wizard"
)

func (e *serviceTestEnv) establishmentService(t *testing.T) (EstablishmentService, repository.EstablishmentRepository) {
	t.Helper()
	ests := repository.NewEstablishmentRepository(e.db)
	svc := NewEstablishmentService(ests, e.audits, e.txm, e.docs, e.notifier, zaptest.NewLogger(t))
	return svc, ests
}

func smallEstablishmentFields() map[string]any {
	return map[string]any{
		forms.FieldEstCategory: model.ScaleSmall,
		forms.FieldEstName:     "Corner Bakery",
		forms.FieldEstAddress:  "12 Mabini St",
		forms.FieldEstBarangay: "Poblacion",
		forms.FieldEstCity:     "Quezon City",
		forms.FieldEstMobile:   "09171234567",
		forms.FieldEstEmail:    "bakery@example.com",
	}
}

func TestEstablishmentWizardSmallRegistration(t *testing.T) {
	env := newServiceTestEnv(t)
	svc, _ := env.establishmentService(t)
	ctx := context.Background()
	owner := uuid.New()

	state, err := svc.OpenWizard(ctx, owner, nil)
	require.NoError(t, err)
	// Small registrations have no document step.
	assert.Equal(t, 3, state.TotalSteps)
	assert.Empty(t, state.Requirements)

	_, err = svc.SetFields(state.ID, owner, smallEstablishmentFields())
	require.NoError(t, err)

	id, err := svc.Submit(ctx, state.ID, owner)
	require.NoError(t, err)

	got, err := svc.GetEstablishment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", got.Name)
	assert.Equal(t, owner.String(), got.OwnerID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.OccupantCapacity, "hazard profile only applies to LARGE")

	logs, _, err := env.audits.List(ctx, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionRegisterEstablishment, logs[0].Action)
}

func TestEstablishmentWizardLargeRequiresClearances(t *testing.T) {
	env := newServiceTestEnv(t)
	svc, _ := env.establishmentService(t)
	ctx := context.Background()
	owner := uuid.New()

	state, err := svc.OpenWizard(ctx, owner, nil)
	require.NoError(t, err)
	sid := state.ID

	fields := smallEstablishmentFields()
	fields[forms.FieldEstCategory] = model.ScaleLarge
	fields[forms.FieldEstName] = "Steel Works"
	fields[forms.FieldEstOccupantCapacity] = 120.0
	fields[forms.FieldEstFlammables] = true
	state, err = svc.SetFields(sid, owner, fields)
	require.NoError(t, err)
	assert.Equal(t, 5, state.TotalSteps)
	assert.Len(t, state.Requirements, 4)

	// The four clearance documents block submission.
	_, err = svc.Submit(ctx, sid, owner)
	var verr *wizard.ValidationError
	require.ErrorAs(t, err, &verr)

	for _, slug := range []string{"barangay_clearance", "site_development_plan", "hazardous_materials_inventory", "emergency_evacuation_plan"} {
		_, err = svc.StageDocument(sid, owner, slug, &wizard.StagedFile{
			Name: slug + ".pdf", Size: 256, MIMEType: "application/pdf", Content: []byte("doc"),
		})
		require.NoError(t, err)
	}

	id, err := svc.Submit(ctx, sid, owner)
	require.NoError(t, err)

	got, err := svc.GetEstablishment(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.OccupantCapacity)
	assert.Equal(t, 120, *got.OccupantCapacity)
	require.NotNil(t, got.StoresFlammables)
	assert.True(t, *got.StoresFlammables)
	assert.Len(t, got.Documents, 4)
}

func TestEstablishmentDraftEdit(t *testing.T) {
	env := newServiceTestEnv(t)
	svc, ests := env.establishmentService(t)
	ctx := context.Background()
	owner := uuid.New()

	state, err := svc.OpenWizard(ctx, owner, nil)
	require.NoError(t, err)
	_, err = svc.SetFields(state.ID, owner, smallEstablishmentFields())
	require.NoError(t, err)
	id, err := svc.Submit(ctx, state.ID, owner)
	require.NoError(t, err)
	estID := uuid.MustParse(id)

	state, err = svc.OpenWizard(ctx, owner, &estID)
	require.NoError(t, err)
	assert.True(t, state.EditingDraft)
	assert.Equal(t, "Corner Bakery", state.Fields.String(forms.FieldEstName))

	_, err = svc.SetFields(state.ID, owner, map[string]any{forms.FieldEstName: "Corner Bakery & Cafe"})
	require.NoError(t, err)
	updatedID, err := svc.Submit(ctx, state.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, id, updatedID)

	est, err := ests.FindByID(ctx, estID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery & Cafe", est.Name)

	// Someone else's establishment cannot be opened for edit.
	_, err = svc.OpenWizard(ctx, uuid.New(), &estID)
	assert.ErrorContains(t, err, "does not belong")
}

func TestEstablishmentDeactivate(t *testing.T) {
	env := newServiceTestEnv(t)
	svc, _ := env.establishmentService(t)
	ctx := context.Background()
	owner := uuid.New()

	state, err := svc.OpenWizard(ctx, owner, nil)
	require.NoError(t, err)
	_, err = svc.SetFields(state.ID, owner, smallEstablishmentFields())
	require.NoError(t, err)
	id, err := svc.Submit(ctx, state.ID, owner)
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateEstablishment(ctx, id, owner))

	// Soft-deleted rows disappear from listings and lookups.
	_, err = svc.GetEstablishment(ctx, id)
	assert.Error(t, err)
	_, total, err := svc.GetEstablishments(ctx, &owner, "", "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	logs, _, err := env.audits.List(ctx, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.Contains(t, actions, model.ActionDeleteEstablishment)
}
