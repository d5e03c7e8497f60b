package forms

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"firecert/internal/model"
	"firecert/internal/wizard"
)

// Inspection checklist field keys.
const (
	FieldInspOccupancyType   = "occupancy_type"
	FieldInspEstablishmentID = "establishment_id"
	FieldInspDate            = "inspection_date"

	FieldInspExitsUnobstructed    = "exits_unobstructed"
	FieldInspExitSignsIlluminated = "exit_signs_illuminated"
	FieldInspDoorsSwingOutward    = "doors_swing_outward"

	FieldInspExtinguishersTagged  = "extinguishers_tagged"
	FieldInspAlarmFunctional      = "alarm_functional"
	FieldInspSprinklerOperational = "sprinkler_operational"

	FieldInspFindings       = "findings"
	FieldInspRecommendation = "recommendation"
)

var checklistChoices = []string{model.ChecklistPass, model.ChecklistFail, model.ChecklistNA}

// Photo requirements per occupancy type. Assembly occupancies must document
// the egress routes; the rest only attach the facade shot.
var inspectionRequirements = wizard.RequirementSet{
	{Category: model.OccupancyAssembly}: {
		{Slug: "photo_of_main_entrance", Label: "Photo of Main Entrance", Required: true},
		{Slug: "photo_of_exit_routes", Label: "Photo of Exit Routes", Required: true},
		{Slug: "photo_of_assembly_area", Label: "Photo of Assembly Area", Required: false},
	},
	{Category: model.OccupancyMercantile}: {
		{Slug: "photo_of_main_entrance", Label: "Photo of Main Entrance", Required: true},
		{Slug: "photo_of_stock_room", Label: "Photo of Stock Room", Required: false},
	},
	{Category: model.OccupancyIndustrial}: {
		{Slug: "photo_of_main_entrance", Label: "Photo of Main Entrance", Required: true},
		{Slug: "photo_of_process_area", Label: "Photo of Process Area", Required: true},
	},
}

func checklistRule(key, label string) wizard.FieldRule {
	return wizard.FieldRule{Key: key, Label: label, Required: true, Kind: wizard.KindChoice, Choices: checklistChoices}
}

var inspectionSteps = []wizard.Step{
	{
		Name:  "visit",
		Title: "Inspection Visit",
		Fields: []wizard.FieldRule{
			{Key: FieldInspOccupancyType, Label: "Occupancy type", Required: true, Kind: wizard.KindChoice, Choices: []string{model.OccupancyAssembly, model.OccupancyMercantile, model.OccupancyIndustrial}},
			{Key: FieldInspEstablishmentID, Label: "Establishment", Required: true},
			{Key: FieldInspDate, Label: "Inspection date", Required: true},
		},
		Check: func(fields wizard.Fields) map[string]string {
			errs := map[string]string{}
			if d := fields.String(FieldInspDate); d != "" {
				if _, err := time.Parse("2006-01-02", d); err != nil {
					errs[FieldInspDate] = "Inspection date must be in YYYY-MM-DD format"
				}
			}
			return errs
		},
	},
	{
		Name:  "egress",
		Title: "Means of Egress",
		Fields: []wizard.FieldRule{
			checklistRule(FieldInspExitsUnobstructed, "Exits unobstructed"),
			checklistRule(FieldInspExitSignsIlluminated, "Exit signs illuminated"),
			checklistRule(FieldInspDoorsSwingOutward, "Exit doors swing outward"),
		},
	},
	{
		Name:  "protection",
		Title: "Fire Protection",
		Fields: []wizard.FieldRule{
			checklistRule(FieldInspExtinguishersTagged, "Extinguishers inspected and tagged"),
			checklistRule(FieldInspAlarmFunctional, "Fire alarm functional"),
			checklistRule(FieldInspSprinklerOperational, "Sprinkler system operational"),
		},
	},
	{
		Name:      "findings",
		Title:     "Findings and Photos",
		Documents: true,
		Fields: []wizard.FieldRule{
			{Key: FieldInspFindings, Label: "Findings"},
			{Key: FieldInspRecommendation, Label: "Recommendation", Required: true, Kind: wizard.KindChoice, Choices: []string{model.RecommendCompliant, model.RecommendNoticeToComply, model.RecommendAbatement}},
		},
	},
	{
		Name:  "review",
		Title: "Review and File",
	},
}

// NewInspectionForm builds the inspector checklist wizard. The step list is
// fixed; the occupancy type only drives the photo requirement list.
func NewInspectionForm() *wizard.Form {
	return &wizard.Form{
		Name:         "inspection",
		CategoryKey:  FieldInspOccupancyType,
		Requirements: inspectionRequirements,
		Policy:       wizard.DefaultFilePolicy,
		StepsFor: func(string) []wizard.Step {
			return inspectionSteps
		},
	}
}

// BuildInspectionSubmission maps checklist fields onto inspection attributes.
func BuildInspectionSubmission(fields wizard.Fields, docs map[string]*string) (*wizard.Submission, error) {
	establishmentID, err := uuid.Parse(fields.String(FieldInspEstablishmentID))
	if err != nil {
		return nil, fmt.Errorf("invalid establishment id: %w", err)
	}

	attrs := wizard.Attributes{
		"establishment_id": establishmentID,
		"occupancy_type":   fields.String(FieldInspOccupancyType),
		"inspection_date":  fields.String(FieldInspDate),

		"exits_unobstructed":     fields.String(FieldInspExitsUnobstructed),
		"exit_signs_illuminated": fields.String(FieldInspExitSignsIlluminated),
		"doors_swing_outward":    fields.String(FieldInspDoorsSwingOutward),

		"extinguishers_tagged":  fields.String(FieldInspExtinguishersTagged),
		"alarm_functional":      fields.String(FieldInspAlarmFunctional),
		"sprinkler_operational": fields.String(FieldInspSprinklerOperational),

		"findings":       fields.String(FieldInspFindings),
		"recommendation": fields.String(FieldInspRecommendation),
	}

	return &wizard.Submission{Attributes: attrs, Documents: docs}, nil
}

// ApplyInspectionSubmission writes a submission onto the model.
func ApplyInspectionSubmission(insp *model.Inspection, sub *wizard.Submission) {
	attrs := sub.Attributes
	insp.EstablishmentID = attrs["establishment_id"].(uuid.UUID)
	insp.OccupancyType = attrs["occupancy_type"].(string)
	insp.InspectionDate = attrs["inspection_date"].(string)

	insp.ExitsUnobstructed = attrs["exits_unobstructed"].(string)
	insp.ExitSignsIlluminated = attrs["exit_signs_illuminated"].(string)
	insp.DoorsSwingOutward = attrs["doors_swing_outward"].(string)

	insp.ExtinguishersTagged = attrs["extinguishers_tagged"].(string)
	insp.AlarmFunctional = attrs["alarm_functional"].(string)
	insp.SprinklerOperational = attrs["sprinkler_operational"].(string)

	insp.Findings = attrs["findings"].(string)
	insp.Recommendation = attrs["recommendation"].(string)

	photos := make([]model.InspectionPhoto, 0, len(sub.Documents))
	for slug, ref := range sub.Documents {
		if ref != nil {
			photos = append(photos, model.InspectionPhoto{Slug: slug, URL: *ref})
		}
	}
	insp.Photos = photos
}
