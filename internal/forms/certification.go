// Package forms holds the declarative wizard definitions for the three large
// forms: certification application, establishment registration and inspection
// checklist. Each definition pairs ordered steps with its document
// requirement tables and the mapping to and from its backing record.
package forms

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"firecert/internal/model"
	"firecert/internal/wizard"
)

// Certification field keys. Keys match the application table's column names
// so the builder and loader stay mechanical.
const (
	FieldCategory        = "category"
	FieldSubStatus       = "sub_status"
	FieldEstablishmentID = "establishment_id"
	FieldContactPerson   = "contact_person"
	FieldContactNumber   = "contact_number"
	FieldContactEmail    = "contact_email"

	FieldTradeName      = "trade_name"
	FieldRegistrationNo = "registration_no"
	FieldBusinessNature = "business_nature"
	FieldFloorAreaSqm   = "floor_area_sqm"
	FieldOccupantLoad   = "occupant_load"

	FieldBuildingPermitNo  = "building_permit_no"
	FieldContractorName    = "contractor_name"
	FieldProjectCost       = "project_cost"
	FieldStoreys           = "storeys"
	FieldSprinklerSystem   = "sprinkler_system"
	FieldAlarmSystem       = "alarm_system"
	FieldEmergencyLighting = "emergency_lighting"
)

// certificationRequirements maps each (category, sub-status) pair to its
// ordered document list. Slugs are assigned by hand; wizard.Slugify is the
// convention they follow, and the schema tests hold both properties.
var certificationRequirements = wizard.RequirementSet{
	{Category: model.CategoryBusiness, SubStatus: model.SubStatusNew}: {
		{Slug: "certificate_of_business_name_registration", Label: "Certificate of Business Name Registration", Required: true},
		{Slug: "occupancy_permit_photocopy", Label: "Occupancy Permit (photocopy)", Required: true},
		{Slug: "assessment_of_fire_code_fees", Label: "Assessment of Fire Code Fees", Required: true},
		{Slug: "fire_insurance_policy", Label: "Fire Insurance Policy", Required: false},
		{Slug: "fire_safety_maintenance_report", Label: "Fire Safety Maintenance Report", Required: false},
	},
	{Category: model.CategoryBusiness, SubStatus: model.SubStatusRenewal}: {
		{Slug: "previous_fire_safety_inspection_certificate", Label: "Previous Fire Safety Inspection Certificate", Required: true},
		{Slug: "business_permit_previous_year", Label: "Business Permit (previous year)", Required: true},
		{Slug: "fire_safety_maintenance_report", Label: "Fire Safety Maintenance Report", Required: true},
		{Slug: "fire_insurance_policy", Label: "Fire Insurance Policy", Required: false},
	},
	// Occupancy applications use one list regardless of sub-status.
	{Category: model.CategoryOccupancy}: {
		{Slug: "certificate_of_completion", Label: "Certificate of Completion", Required: true},
		{Slug: "endorsement_from_building_official", Label: "Endorsement from the Office of the Building Official", Required: true},
		{Slug: "as_built_plan_photocopy", Label: "As-built Plan (photocopy)", Required: true},
		{Slug: "fire_safety_compliance_report", Label: "Fire Safety Compliance Report", Required: false},
	},
}

var certificationGeneralStep = wizard.Step{
	Name:  "general",
	Title: "General Information",
	Fields: []wizard.FieldRule{
		{Key: FieldCategory, Label: "Certification type", Required: true, Kind: wizard.KindChoice, Choices: []string{model.CategoryBusiness, model.CategoryOccupancy}},
		{Key: FieldSubStatus, Label: "Application status", Required: true, Kind: wizard.KindChoice, Choices: []string{model.SubStatusNew, model.SubStatusRenewal}},
		{Key: FieldEstablishmentID, Label: "Establishment", Required: true},
		{Key: FieldContactPerson, Label: "Contact person", Required: true},
		{Key: FieldContactNumber, Label: "Contact number", Required: true, Kind: wizard.KindMobile},
		{Key: FieldContactEmail, Label: "Contact email", Required: true, Kind: wizard.KindEmail},
	},
}

var certificationDocumentsStep = wizard.Step{
	Name:      "documents",
	Title:     "Supporting Documents",
	Documents: true,
}

var certificationReviewStep = wizard.Step{
	Name:  "review",
	Title: "Review and Confirm",
}

var certificationBusinessSteps = []wizard.Step{
	certificationGeneralStep,
	{
		Name:  "business",
		Title: "Business Details",
		Fields: []wizard.FieldRule{
			{Key: FieldTradeName, Label: "Trade name", Required: true},
			{Key: FieldRegistrationNo, Label: "DTI/SEC registration number", Required: true, Kind: wizard.KindCode, Length: 9},
			{Key: FieldBusinessNature, Label: "Nature of business", Required: true},
			{Key: FieldFloorAreaSqm, Label: "Total floor area (sqm)", Required: true, Kind: wizard.KindNumeric, Min: 1, Max: 100000},
			{Key: FieldOccupantLoad, Label: "Occupant load", Required: true, Kind: wizard.KindNumeric, Min: 1, Max: 50000},
		},
	},
	certificationDocumentsStep,
	certificationReviewStep,
}

var certificationOccupancySteps = []wizard.Step{
	certificationGeneralStep,
	{
		Name:  "building",
		Title: "Building Details",
		Fields: []wizard.FieldRule{
			{Key: FieldBuildingPermitNo, Label: "Building permit number", Required: true},
			{Key: FieldContractorName, Label: "Contractor name", Required: true},
			{Key: FieldProjectCost, Label: "Project cost", Required: true, Kind: wizard.KindNumeric, Min: 1, Max: 1e9},
			{Key: FieldStoreys, Label: "Number of storeys", Required: true, Kind: wizard.KindNumeric, Min: 1, Max: 60},
		},
	},
	{
		Name:  "protection",
		Title: "Fire Protection Systems",
		Fields: []wizard.FieldRule{
			{Key: FieldSprinklerSystem, Label: "Sprinkler system", Required: true, Kind: wizard.KindChoice, Choices: []string{"AUTOMATIC", "PARTIAL", "NONE"}},
			{Key: FieldAlarmSystem, Label: "Alarm system", Required: true, Kind: wizard.KindChoice, Choices: []string{"ADDRESSABLE", "CONVENTIONAL", "NONE"}},
			{Key: FieldEmergencyLighting, Label: "Emergency lighting installed", Kind: wizard.KindBool},
		},
	},
	certificationDocumentsStep,
	certificationReviewStep,
}

// NewCertificationForm builds the certification application wizard. Business
// applications have 4 steps; occupancy applications carry an extra
// fire-protection step. Before the category is chosen only the general step
// is reachable.
func NewCertificationForm() *wizard.Form {
	return &wizard.Form{
		Name:         "certification",
		CategoryKey:  FieldCategory,
		SubStatusKey: FieldSubStatus,
		Requirements: certificationRequirements,
		Policy:       wizard.DefaultFilePolicy,
		StepsFor: func(category string) []wizard.Step {
			switch category {
			case model.CategoryOccupancy:
				return certificationOccupancySteps
			default:
				return certificationBusinessSteps
			}
		},
	}
}

// BuildCertificationSubmission is the certification form's attribute builder.
// It parses the selected category's field group into its closed record type
// and nulls out every column of the non-selected group, never omitting a key.
func BuildCertificationSubmission(fields wizard.Fields, docs map[string]*string) (*wizard.Submission, error) {
	establishmentID, err := uuid.Parse(fields.String(FieldEstablishmentID))
	if err != nil {
		return nil, fmt.Errorf("invalid establishment id: %w", err)
	}

	attrs := wizard.Attributes{
		"establishment_id": establishmentID,
		"category":         fields.String(FieldCategory),
		"sub_status":       fields.String(FieldSubStatus),
		"contact_person":   fields.String(FieldContactPerson),
		"contact_number":   fields.String(FieldContactNumber),
		"contact_email":    fields.String(FieldContactEmail),

		"trade_name":      nil,
		"registration_no": nil,
		"business_nature": nil,
		"floor_area_sqm":  nil,
		"occupant_load":   nil,

		"building_permit_no": nil,
		"contractor_name":    nil,
		"project_cost":       nil,
		"storeys":            nil,
		"sprinkler_system":   nil,
		"alarm_system":       nil,
		"emergency_lighting": nil,
	}

	switch fields.String(FieldCategory) {
	case model.CategoryBusiness:
		b, err := parseBusinessFields(fields)
		if err != nil {
			return nil, err
		}
		attrs["trade_name"] = b.TradeName
		attrs["registration_no"] = b.RegistrationNo
		attrs["business_nature"] = b.Nature
		attrs["floor_area_sqm"] = b.FloorAreaSqm
		attrs["occupant_load"] = b.OccupantLoad
	case model.CategoryOccupancy:
		o, err := parseOccupancyFields(fields)
		if err != nil {
			return nil, err
		}
		attrs["building_permit_no"] = o.PermitNo
		attrs["contractor_name"] = o.Contractor
		attrs["project_cost"] = o.ProjectCost
		attrs["storeys"] = o.Storeys
		attrs["sprinkler_system"] = o.Sprinkler
		attrs["alarm_system"] = o.Alarm
		attrs["emergency_lighting"] = o.EmergencyLighting
	default:
		return nil, fmt.Errorf("unknown category %q", fields.String(FieldCategory))
	}

	return &wizard.Submission{Attributes: attrs, Documents: docs}, nil
}

// BusinessFields is the closed record type of the BUSINESS category group.
type BusinessFields struct {
	TradeName      string
	RegistrationNo string
	Nature         string
	FloorAreaSqm   float64
	OccupantLoad   int
}

// OccupancyFields is the closed record type of the OCCUPANCY category group.
type OccupancyFields struct {
	PermitNo          string
	Contractor        string
	ProjectCost       decimal.Decimal
	Storeys           int
	Sprinkler         string
	Alarm             string
	EmergencyLighting bool
}

func parseBusinessFields(fields wizard.Fields) (*BusinessFields, error) {
	b := &BusinessFields{
		TradeName:      fields.String(FieldTradeName),
		RegistrationNo: fields.String(FieldRegistrationNo),
		Nature:         fields.String(FieldBusinessNature),
		FloorAreaSqm:   fields.Number(FieldFloorAreaSqm),
		OccupantLoad:   int(fields.Number(FieldOccupantLoad)),
	}
	if b.TradeName == "" || b.RegistrationNo == "" {
		return nil, fmt.Errorf("business field group is incomplete")
	}
	return b, nil
}

func parseOccupancyFields(fields wizard.Fields) (*OccupancyFields, error) {
	cost, err := decimal.NewFromString(fields.String(FieldProjectCost))
	if err != nil {
		return nil, fmt.Errorf("invalid project cost: %w", err)
	}
	o := &OccupancyFields{
		PermitNo:          fields.String(FieldBuildingPermitNo),
		Contractor:        fields.String(FieldContractorName),
		ProjectCost:       cost,
		Storeys:           int(fields.Number(FieldStoreys)),
		Sprinkler:         fields.String(FieldSprinklerSystem),
		Alarm:             fields.String(FieldAlarmSystem),
		EmergencyLighting: fields.Bool(FieldEmergencyLighting),
	}
	if o.PermitNo == "" || o.Contractor == "" {
		return nil, fmt.Errorf("occupancy field group is incomplete")
	}
	return o, nil
}

// ApplyCertificationSubmission writes a submission onto an application model.
// Every column of both category groups is assigned, so updating a draft that
// switched category clears the old group's values.
func ApplyCertificationSubmission(app *model.Application, sub *wizard.Submission) {
	attrs := sub.Attributes
	app.EstablishmentID = attrs["establishment_id"].(uuid.UUID)
	app.Category = attrs["category"].(string)
	app.SubStatus = attrs["sub_status"].(string)
	app.ContactPerson = attrs["contact_person"].(string)
	app.ContactNumber = attrs["contact_number"].(string)
	app.ContactEmail = attrs["contact_email"].(string)

	app.TradeName = optString(attrs["trade_name"])
	app.RegistrationNo = optString(attrs["registration_no"])
	app.BusinessNature = optString(attrs["business_nature"])
	app.FloorAreaSqm = optFloat(attrs["floor_area_sqm"])
	app.OccupantLoad = optInt(attrs["occupant_load"])

	app.BuildingPermitNo = optString(attrs["building_permit_no"])
	app.ContractorName = optString(attrs["contractor_name"])
	app.ProjectCost = optDecimal(attrs["project_cost"])
	app.Storeys = optInt(attrs["storeys"])
	app.SprinklerSystem = optString(attrs["sprinkler_system"])
	app.AlarmSystem = optString(attrs["alarm_system"])
	app.EmergencyLighting = optBool(attrs["emergency_lighting"])

	docs := make([]model.ApplicationDocument, 0, len(sub.Documents))
	for slug, ref := range sub.Documents {
		if ref != nil {
			docs = append(docs, model.ApplicationDocument{Slug: slug, URL: *ref})
		}
	}
	app.Documents = docs
}

// CertificationDraftFields is the inverse of the builder: it re-populates a
// wizard session's field record and stored document references from an
// existing pending application.
func CertificationDraftFields(app *model.Application) (wizard.Fields, map[string]string) {
	fields := wizard.Fields{
		FieldCategory:        app.Category,
		FieldSubStatus:       app.SubStatus,
		FieldEstablishmentID: app.EstablishmentID.String(),
		FieldContactPerson:   app.ContactPerson,
		FieldContactNumber:   app.ContactNumber,
		FieldContactEmail:    app.ContactEmail,
	}

	setString(fields, FieldTradeName, app.TradeName)
	setString(fields, FieldRegistrationNo, app.RegistrationNo)
	setString(fields, FieldBusinessNature, app.BusinessNature)
	if app.FloorAreaSqm != nil {
		fields[FieldFloorAreaSqm] = *app.FloorAreaSqm
	}
	if app.OccupantLoad != nil {
		fields[FieldOccupantLoad] = float64(*app.OccupantLoad)
	}

	setString(fields, FieldBuildingPermitNo, app.BuildingPermitNo)
	setString(fields, FieldContractorName, app.ContractorName)
	if app.ProjectCost.Valid {
		fields[FieldProjectCost] = app.ProjectCost.Decimal.String()
	}
	if app.Storeys != nil {
		fields[FieldStoreys] = float64(*app.Storeys)
	}
	setString(fields, FieldSprinklerSystem, app.SprinklerSystem)
	setString(fields, FieldAlarmSystem, app.AlarmSystem)
	if app.EmergencyLighting != nil {
		fields[FieldEmergencyLighting] = *app.EmergencyLighting
	}

	refs := make(map[string]string, len(app.Documents))
	for _, d := range app.Documents {
		refs[d.Slug] = d.URL
	}
	return fields, refs
}

// --- attribute conversion helpers ---

func optString(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	case *string:
		return t
	default:
		s := fmt.Sprintf("%v", t)
		return &s
	}
}

func optFloat(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return &t
	default:
		return nil
	}
}

func optInt(v any) *int {
	switch t := v.(type) {
	case nil:
		return nil
	case int:
		return &t
	case float64:
		n := int(t)
		return &n
	default:
		return nil
	}
}

func optBool(v any) *bool {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return &t
	default:
		return nil
	}
}

func optDecimal(v any) decimal.NullDecimal {
	switch t := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NullDecimal{Decimal: t, Valid: true}
	default:
		return decimal.NullDecimal{}
	}
}

func setString(fields wizard.Fields, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}
