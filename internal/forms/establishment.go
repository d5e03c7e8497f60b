package forms

import (
	"fmt"

	"firecert/internal/model"
	"firecert/internal/wizard"
)

// Establishment registration field keys.
const (
	FieldEstCategory = "category"
	FieldEstName     = "name"
	FieldEstTIN      = "tin"
	FieldEstAddress  = "address"
	FieldEstBarangay = "barangay"
	FieldEstCity     = "city"
	FieldEstLandline = "landline"
	FieldEstMobile   = "mobile"
	FieldEstEmail    = "email"

	FieldEstOccupantCapacity = "occupant_capacity"
	FieldEstFlammables       = "stores_flammables"
	FieldEstHazardous        = "hazardous_processes"
	FieldEstGenerator        = "has_standby_generator"
)

// Small establishments register without documents; medium and large ones
// attach clearances, large ones additionally the hazard paperwork.
var establishmentRequirements = wizard.RequirementSet{
	{Category: model.ScaleMedium}: {
		{Slug: "barangay_clearance", Label: "Barangay Clearance", Required: true},
		{Slug: "site_development_plan", Label: "Site Development Plan", Required: false},
	},
	{Category: model.ScaleLarge}: {
		{Slug: "barangay_clearance", Label: "Barangay Clearance", Required: true},
		{Slug: "site_development_plan", Label: "Site Development Plan", Required: true},
		{Slug: "hazardous_materials_inventory", Label: "Hazardous Materials Inventory", Required: true},
		{Slug: "emergency_evacuation_plan", Label: "Emergency Evacuation Plan", Required: true},
	},
}

var establishmentProfileStep = wizard.Step{
	Name:  "profile",
	Title: "Establishment Profile",
	Fields: []wizard.FieldRule{
		{Key: FieldEstCategory, Label: "Registration scale", Required: true, Kind: wizard.KindChoice, Choices: []string{model.ScaleSmall, model.ScaleMedium, model.ScaleLarge}},
		{Key: FieldEstName, Label: "Establishment name", Required: true},
		{Key: FieldEstTIN, Label: "Taxpayer identification number", Kind: wizard.KindCode, Length: 9},
	},
}

var establishmentLocationStep = wizard.Step{
	Name:  "location",
	Title: "Location and Contact",
	Fields: []wizard.FieldRule{
		{Key: FieldEstAddress, Label: "Street address", Required: true},
		{Key: FieldEstBarangay, Label: "Barangay", Required: true},
		{Key: FieldEstCity, Label: "City or municipality", Required: true},
		{Key: FieldEstLandline, Label: "Landline number", Kind: wizard.KindLandline},
		{Key: FieldEstMobile, Label: "Mobile number", Required: true, Kind: wizard.KindMobile},
		{Key: FieldEstEmail, Label: "Email address", Required: true, Kind: wizard.KindEmail},
	},
}

var establishmentHazardStep = wizard.Step{
	Name:  "hazard",
	Title: "Hazard Profile",
	Fields: []wizard.FieldRule{
		{Key: FieldEstOccupantCapacity, Label: "Occupant capacity", Required: true, Kind: wizard.KindNumeric, Min: 1, Max: 100000},
		{Key: FieldEstFlammables, Label: "Stores flammable materials", Kind: wizard.KindBool},
		{Key: FieldEstHazardous, Label: "Runs hazardous processes", Kind: wizard.KindBool},
		{Key: FieldEstGenerator, Label: "Has a standby generator", Kind: wizard.KindBool},
	},
}

var establishmentDocumentsStep = wizard.Step{
	Name:      "documents",
	Title:     "Clearances",
	Documents: true,
}

var establishmentReviewStep = wizard.Step{
	Name:  "review",
	Title: "Review and Confirm",
}

// NewEstablishmentForm builds the registration wizard. Step count depends on
// the scale: SMALL has 3 steps, MEDIUM 4, LARGE 5.
func NewEstablishmentForm() *wizard.Form {
	return &wizard.Form{
		Name:         "establishment",
		CategoryKey:  FieldEstCategory,
		Requirements: establishmentRequirements,
		Policy:       wizard.DefaultFilePolicy,
		StepsFor: func(category string) []wizard.Step {
			switch category {
			case model.ScaleMedium:
				return []wizard.Step{establishmentProfileStep, establishmentLocationStep, establishmentDocumentsStep, establishmentReviewStep}
			case model.ScaleLarge:
				return []wizard.Step{establishmentProfileStep, establishmentLocationStep, establishmentHazardStep, establishmentDocumentsStep, establishmentReviewStep}
			default:
				return []wizard.Step{establishmentProfileStep, establishmentLocationStep, establishmentReviewStep}
			}
		},
	}
}

// BuildEstablishmentSubmission maps the registration fields onto
// establishment attributes. The hazard-profile group is nulled unless the
// scale is LARGE.
func BuildEstablishmentSubmission(fields wizard.Fields, docs map[string]*string) (*wizard.Submission, error) {
	category := fields.String(FieldEstCategory)
	if category == "" {
		return nil, fmt.Errorf("registration scale is missing")
	}

	attrs := wizard.Attributes{
		"category": category,
		"name":     fields.String(FieldEstName),
		"tin":      fields.String(FieldEstTIN),
		"address":  fields.String(FieldEstAddress),
		"barangay": fields.String(FieldEstBarangay),
		"city":     fields.String(FieldEstCity),
		"landline": fields.String(FieldEstLandline),
		"mobile":   fields.String(FieldEstMobile),
		"email":    fields.String(FieldEstEmail),

		"occupant_capacity":     nil,
		"stores_flammables":     nil,
		"hazardous_processes":   nil,
		"has_standby_generator": nil,
	}

	if category == model.ScaleLarge {
		attrs["occupant_capacity"] = int(fields.Number(FieldEstOccupantCapacity))
		attrs["stores_flammables"] = fields.Bool(FieldEstFlammables)
		attrs["hazardous_processes"] = fields.Bool(FieldEstHazardous)
		attrs["has_standby_generator"] = fields.Bool(FieldEstGenerator)
	}

	return &wizard.Submission{Attributes: attrs, Documents: docs}, nil
}

// ApplyEstablishmentSubmission writes a submission onto the model.
func ApplyEstablishmentSubmission(est *model.Establishment, sub *wizard.Submission) {
	attrs := sub.Attributes
	est.Category = attrs["category"].(string)
	est.Name = attrs["name"].(string)
	est.TIN = attrs["tin"].(string)
	est.Address = attrs["address"].(string)
	est.Barangay = attrs["barangay"].(string)
	est.City = attrs["city"].(string)
	est.Landline = attrs["landline"].(string)
	est.Mobile = attrs["mobile"].(string)
	est.Email = attrs["email"].(string)

	est.OccupantCapacity = optInt(attrs["occupant_capacity"])
	est.StoresFlammables = optBool(attrs["stores_flammables"])
	est.HazardousProcesses = optBool(attrs["hazardous_processes"])
	est.HasStandbyGenerator = optBool(attrs["has_standby_generator"])

	docs := make([]model.EstablishmentDocument, 0, len(sub.Documents))
	for slug, ref := range sub.Documents {
		if ref != nil {
			docs = append(docs, model.EstablishmentDocument{Slug: slug, URL: *ref})
		}
	}
	est.Documents = docs
}

// EstablishmentDraftFields re-populates a session from an existing
// establishment so the owner can edit it through the same wizard.
func EstablishmentDraftFields(est *model.Establishment) (wizard.Fields, map[string]string) {
	fields := wizard.Fields{
		FieldEstCategory: est.Category,
		FieldEstName:     est.Name,
		FieldEstTIN:      est.TIN,
		FieldEstAddress:  est.Address,
		FieldEstBarangay: est.Barangay,
		FieldEstCity:     est.City,
		FieldEstLandline: est.Landline,
		FieldEstMobile:   est.Mobile,
		FieldEstEmail:    est.Email,
	}
	if est.OccupantCapacity != nil {
		fields[FieldEstOccupantCapacity] = float64(*est.OccupantCapacity)
	}
	if est.StoresFlammables != nil {
		fields[FieldEstFlammables] = *est.StoresFlammables
	}
	if est.HazardousProcesses != nil {
		fields[FieldEstHazardous] = *est.HazardousProcesses
	}
	if est.HasStandbyGenerator != nil {
		fields[FieldEstGenerator] = *est.HasStandbyGenerator
	}

	refs := make(map[string]string, len(est.Documents))
	for _, d := range est.Documents {
		refs[d.Slug] = d.URL
	}
	return fields, refs
}
