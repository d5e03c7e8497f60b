package forms

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firecert/internal/model"
	"firecert/internal/wizard"
)

func ptr[T any](v T) *T { return &v }

func TestCertificationRequirementTables(t *testing.T) {
	tests := []struct {
		category  string
		subStatus string
		slugs     []string
	}{
		{model.CategoryBusiness, model.SubStatusNew, []string{
			"certificate_of_business_name_registration",
			"occupancy_permit_photocopy",
			"assessment_of_fire_code_fees",
			"fire_insurance_policy",
			"fire_safety_maintenance_report",
		}},
		{model.CategoryBusiness, model.SubStatusRenewal, []string{
			"previous_fire_safety_inspection_certificate",
			"business_permit_previous_year",
			"fire_safety_maintenance_report",
			"fire_insurance_policy",
		}},
		{model.CategoryOccupancy, model.SubStatusNew, []string{
			"certificate_of_completion",
			"endorsement_from_building_official",
			"as_built_plan_photocopy",
			"fire_safety_compliance_report",
		}},
	}

	for _, tc := range tests {
		reqs := certificationRequirements.Resolve(tc.category, tc.subStatus)
		require.Len(t, reqs, len(tc.slugs), "%s/%s", tc.category, tc.subStatus)
		for i, r := range reqs {
			assert.Equal(t, tc.slugs[i], r.Slug)
		}
	}

	// Occupancy ignores sub-status: NEW and RENEWAL resolve identically.
	assert.Equal(t,
		certificationRequirements.Resolve(model.CategoryOccupancy, model.SubStatusNew),
		certificationRequirements.Resolve(model.CategoryOccupancy, model.SubStatusRenewal))
}

func TestRequirementSlugsFollowSlugify(t *testing.T) {
	// Slugs are assigned by hand in the tables; this holds them to the
	// Slugify convention so loaders and stores never disagree on a key.
	overrides := map[string]string{
		// abbreviated label
		"endorsement_from_building_official": "endorsement_from_the_office_of_the_building_official",
	}
	for key, reqs := range certificationRequirements {
		for _, r := range reqs {
			want := wizard.Slugify(r.Label)
			if expanded, ok := overrides[r.Slug]; ok {
				want = expanded
				assert.Equal(t, want, wizard.Slugify(r.Label), "%v %s", key, r.Slug)
				continue
			}
			assert.Equal(t, want, r.Slug, "%v", key)
		}
	}
}

func TestCertificationStepCounts(t *testing.T) {
	form := NewCertificationForm()
	assert.Equal(t, 4, form.TotalSteps(model.CategoryBusiness))
	assert.Equal(t, 5, form.TotalSteps(model.CategoryOccupancy))
	// Before the category is chosen the business sequence applies.
	assert.Equal(t, 4, form.TotalSteps(""))
}

func businessFields(est uuid.UUID) wizard.Fields {
	return wizard.Fields{
		FieldCategory:        model.CategoryBusiness,
		FieldSubStatus:       model.SubStatusNew,
		FieldEstablishmentID: est.String(),
		FieldContactPerson:   "Maria Santos",
		FieldContactNumber:   "09171234567",
		FieldContactEmail:    "maria@example.com",
		FieldTradeName:       "Santos Trading",
		FieldRegistrationNo:  "123456789",
		FieldBusinessNature:  "Retail",
		FieldFloorAreaSqm:    250.5,
		FieldOccupantLoad:    40.0,
	}
}

func occupancyFields(est uuid.UUID) wizard.Fields {
	return wizard.Fields{
		FieldCategory:          model.CategoryOccupancy,
		FieldSubStatus:         model.SubStatusNew,
		FieldEstablishmentID:   est.String(),
		FieldContactPerson:     "Jose Cruz",
		FieldContactNumber:     "09181234567",
		FieldContactEmail:      "jose@example.com",
		FieldBuildingPermitNo:  "BP-2026-0042",
		FieldContractorName:    "Cruz Builders",
		FieldProjectCost:       "1500000.50",
		FieldStoreys:           12.0,
		FieldSprinklerSystem:   "AUTOMATIC",
		FieldAlarmSystem:       "ADDRESSABLE",
		FieldEmergencyLighting: true,
	}
}

func TestBuildCertificationSubmissionBusiness(t *testing.T) {
	est := uuid.New()
	sub, err := BuildCertificationSubmission(businessFields(est), map[string]*string{
		"occupancy_permit_photocopy": ptr("ref://occupancy_permit"),
		"fire_insurance_policy":      nil,
	})
	require.NoError(t, err)

	attrs := sub.Attributes
	assert.Equal(t, est, attrs["establishment_id"])
	assert.Equal(t, "Santos Trading", attrs["trade_name"])
	assert.Equal(t, 250.5, attrs["floor_area_sqm"])
	assert.Equal(t, 40, attrs["occupant_load"])

	// The occupancy group is present but nil, never absent.
	for _, key := range []string{"building_permit_no", "contractor_name", "project_cost", "storeys", "sprinkler_system", "alarm_system", "emergency_lighting"} {
		require.Contains(t, attrs, key)
		assert.Nil(t, attrs[key], key)
	}
}

func TestBuildCertificationSubmissionOccupancy(t *testing.T) {
	est := uuid.New()
	sub, err := BuildCertificationSubmission(occupancyFields(est), nil)
	require.NoError(t, err)

	attrs := sub.Attributes
	assert.Equal(t, "BP-2026-0042", attrs["building_permit_no"])
	assert.Equal(t, 12, attrs["storeys"])
	assert.True(t, decimal.RequireFromString("1500000.50").Equal(attrs["project_cost"].(decimal.Decimal)))
	assert.Equal(t, true, attrs["emergency_lighting"])

	for _, key := range []string{"trade_name", "registration_no", "business_nature", "floor_area_sqm", "occupant_load"} {
		require.Contains(t, attrs, key)
		assert.Nil(t, attrs[key], key)
	}
}

func TestBuildCertificationSubmissionErrors(t *testing.T) {
	t.Run("invalid establishment id", func(t *testing.T) {
		fields := businessFields(uuid.New())
		fields[FieldEstablishmentID] = "not-a-uuid"
		_, err := BuildCertificationSubmission(fields, nil)
		assert.Error(t, err)
	})

	t.Run("unknown category", func(t *testing.T) {
		fields := businessFields(uuid.New())
		fields[FieldCategory] = "STORAGE"
		_, err := BuildCertificationSubmission(fields, nil)
		assert.Error(t, err)
	})

	t.Run("incomplete business group", func(t *testing.T) {
		fields := businessFields(uuid.New())
		delete(fields, FieldTradeName)
		_, err := BuildCertificationSubmission(fields, nil)
		assert.Error(t, err)
	})

	t.Run("invalid project cost", func(t *testing.T) {
		fields := occupancyFields(uuid.New())
		fields[FieldProjectCost] = "1.5e3x"
		_, err := BuildCertificationSubmission(fields, nil)
		assert.Error(t, err)
	})
}

func TestApplyCertificationSubmissionClearsOldGroup(t *testing.T) {
	est := uuid.New()

	// A draft that started as BUSINESS and was switched to OCCUPANCY must end
	// up with every business column cleared.
	app := &model.Application{
		TradeName:      ptr("Old Trade"),
		RegistrationNo: ptr("999999999"),
		FloorAreaSqm:   ptr(100.0),
		OccupantLoad:   ptr(10),
	}

	sub, err := BuildCertificationSubmission(occupancyFields(est), map[string]*string{
		"certificate_of_completion": ptr("ref://completion"),
	})
	require.NoError(t, err)
	ApplyCertificationSubmission(app, sub)

	assert.Nil(t, app.TradeName)
	assert.Nil(t, app.RegistrationNo)
	assert.Nil(t, app.FloorAreaSqm)
	assert.Nil(t, app.OccupantLoad)

	require.NotNil(t, app.BuildingPermitNo)
	assert.Equal(t, "BP-2026-0042", *app.BuildingPermitNo)
	assert.True(t, app.ProjectCost.Valid)
	require.Len(t, app.Documents, 1)
	assert.Equal(t, "certificate_of_completion", app.Documents[0].Slug)
}

func TestCertificationDraftRoundTrip(t *testing.T) {
	est := uuid.New()
	sub, err := BuildCertificationSubmission(occupancyFields(est), map[string]*string{
		"certificate_of_completion": ptr("ref://completion"),
	})
	require.NoError(t, err)

	app := &model.Application{}
	ApplyCertificationSubmission(app, sub)

	fields, refs := CertificationDraftFields(app)
	assert.Equal(t, model.CategoryOccupancy, fields.String(FieldCategory))
	assert.Equal(t, est.String(), fields.String(FieldEstablishmentID))
	assert.Equal(t, "1500000.5", fields.String(FieldProjectCost))
	assert.Equal(t, 12.0, fields.Number(FieldStoreys))
	assert.True(t, fields.Bool(FieldEmergencyLighting))
	assert.Equal(t, "ref://completion", refs["certificate_of_completion"])

	// Business-group keys stay absent so the wizard treats them as untouched.
	assert.NotContains(t, fields, FieldTradeName)
	assert.NotContains(t, fields, FieldFloorAreaSqm)

	// The round-tripped fields rebuild the same submission.
	again, err := BuildCertificationSubmission(fields, nil)
	require.NoError(t, err)
	assert.Equal(t, sub.Attributes["building_permit_no"], again.Attributes["building_permit_no"])
	assert.Equal(t, sub.Attributes["storeys"], again.Attributes["storeys"])
}

func TestCertificationWizardWalkthrough(t *testing.T) {
	s := wizard.NewSession(NewCertificationForm())
	est := uuid.New()

	for key, value := range businessFields(est) {
		require.NoError(t, s.SetField(key, value))
	}

	ok, err := s.Next() // general
	require.NoError(t, err)
	require.True(t, ok, "errors: %v", s.Errors())

	ok, err = s.Next() // business details
	require.NoError(t, err)
	require.True(t, ok, "errors: %v", s.Errors())

	// Document step blocks until the three required documents are staged.
	ok, err = s.Next()
	require.NoError(t, err)
	require.False(t, ok)
	assert.Len(t, s.Errors(), 3)

	for _, slug := range []string{"certificate_of_business_name_registration", "occupancy_permit_photocopy", "assessment_of_fire_code_fees"} {
		require.NoError(t, s.StageDocument(slug, &wizard.StagedFile{Name: slug + ".pdf", Size: 1024, MIMEType: "application/pdf"}))
	}
	ok, err = s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, s.CurrentStep())
}

func TestEstablishmentStepCounts(t *testing.T) {
	form := NewEstablishmentForm()
	assert.Equal(t, 3, form.TotalSteps(model.ScaleSmall))
	assert.Equal(t, 4, form.TotalSteps(model.ScaleMedium))
	assert.Equal(t, 5, form.TotalSteps(model.ScaleLarge))
}

func TestBuildEstablishmentSubmission(t *testing.T) {
	base := wizard.Fields{
		FieldEstCategory:         model.ScaleMedium,
		FieldEstName:             "Plaza Mall",
		FieldEstTIN:              "123456789",
		FieldEstAddress:          "1 Rizal Ave",
		FieldEstBarangay:         "Poblacion",
		FieldEstCity:             "Quezon City",
		FieldEstMobile:           "09171234567",
		FieldEstEmail:            "admin@plazamall.ph",
		FieldEstOccupantCapacity: 800.0,
		FieldEstFlammables:       true,
	}

	t.Run("hazard group nulled below LARGE", func(t *testing.T) {
		sub, err := BuildEstablishmentSubmission(base, nil)
		require.NoError(t, err)
		assert.Nil(t, sub.Attributes["occupant_capacity"])
		assert.Nil(t, sub.Attributes["stores_flammables"])
	})

	t.Run("hazard group kept for LARGE", func(t *testing.T) {
		fields := base.Clone()
		fields[FieldEstCategory] = model.ScaleLarge
		sub, err := BuildEstablishmentSubmission(fields, nil)
		require.NoError(t, err)
		assert.Equal(t, 800, sub.Attributes["occupant_capacity"])
		assert.Equal(t, true, sub.Attributes["stores_flammables"])
		assert.Equal(t, false, sub.Attributes["hazardous_processes"])
	})

	t.Run("missing scale", func(t *testing.T) {
		_, err := BuildEstablishmentSubmission(wizard.Fields{}, nil)
		assert.Error(t, err)
	})
}

func TestEstablishmentDraftRoundTrip(t *testing.T) {
	est := &model.Establishment{
		Category:            model.ScaleLarge,
		Name:                "Steel Works",
		Address:             "Industrial Rd",
		Barangay:            "San Roque",
		City:                "Caloocan",
		Mobile:              "09181234567",
		Email:               "ops@steelworks.ph",
		OccupantCapacity:    ptr(120),
		StoresFlammables:    ptr(true),
		HazardousProcesses:  ptr(true),
		HasStandbyGenerator: ptr(false),
		Documents: []model.EstablishmentDocument{
			{Slug: "barangay_clearance", URL: "ref://clearance"},
		},
	}

	fields, refs := EstablishmentDraftFields(est)
	assert.Equal(t, model.ScaleLarge, fields.String(FieldEstCategory))
	assert.Equal(t, 120.0, fields.Number(FieldEstOccupantCapacity))
	assert.True(t, fields.Bool(FieldEstFlammables))
	assert.False(t, fields.Bool(FieldEstGenerator))
	assert.Equal(t, "ref://clearance", refs["barangay_clearance"])

	sub, err := BuildEstablishmentSubmission(fields, nil)
	require.NoError(t, err)
	out := &model.Establishment{}
	ApplyEstablishmentSubmission(out, sub)
	assert.Equal(t, est.Name, out.Name)
	require.NotNil(t, out.OccupantCapacity)
	assert.Equal(t, 120, *out.OccupantCapacity)
}

func TestInspectionDateCheck(t *testing.T) {
	s := wizard.NewSession(NewInspectionForm())
	require.NoError(t, s.SetField(FieldInspOccupancyType, model.OccupancyMercantile))
	require.NoError(t, s.SetField(FieldInspEstablishmentID, uuid.New().String()))
	require.NoError(t, s.SetField(FieldInspDate, "30-08-2026"))

	ok, err := s.Next()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, s.Errors()[FieldInspDate], "YYYY-MM-DD")

	require.NoError(t, s.SetField(FieldInspDate, "2026-08-30"))
	ok, err = s.Next()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInspectionPhotoRequirements(t *testing.T) {
	assert.Len(t, inspectionRequirements.Resolve(model.OccupancyAssembly, ""), 3)
	assert.Len(t, inspectionRequirements.Resolve(model.OccupancyMercantile, ""), 2)
	assert.Len(t, inspectionRequirements.Resolve(model.OccupancyIndustrial, ""), 2)
}

func TestBuildInspectionSubmission(t *testing.T) {
	est := uuid.New()
	fields := wizard.Fields{
		FieldInspOccupancyType:        model.OccupancyAssembly,
		FieldInspEstablishmentID:      est.String(),
		FieldInspDate:                 "2026-08-15",
		FieldInspExitsUnobstructed:    model.ChecklistPass,
		FieldInspExitSignsIlluminated: model.ChecklistFail,
		FieldInspDoorsSwingOutward:    model.ChecklistNA,
		FieldInspExtinguishersTagged:  model.ChecklistPass,
		FieldInspAlarmFunctional:      model.ChecklistPass,
		FieldInspSprinklerOperational: model.ChecklistFail,
		FieldInspFindings:             "Two exit signs unlit on the second floor.",
		FieldInspRecommendation:       model.RecommendNoticeToComply,
	}

	sub, err := BuildInspectionSubmission(fields, map[string]*string{
		"photo_of_main_entrance": ptr("ref://entrance"),
		"photo_of_exit_routes":   ptr("ref://exits"),
		"photo_of_assembly_area": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, est, sub.Attributes["establishment_id"])
	assert.Equal(t, model.ChecklistFail, sub.Attributes["exit_signs_illuminated"])

	insp := &model.Inspection{}
	ApplyInspectionSubmission(insp, sub)
	assert.Equal(t, model.RecommendNoticeToComply, insp.Recommendation)
	assert.Len(t, insp.Photos, 2)
}
