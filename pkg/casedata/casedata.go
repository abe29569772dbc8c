// Package casedata models the case record a forensic report is rendered from.
//
// The record is produced by the case-editing application and persisted outside this module.
// Its shape is loose: fields arrive with the wrong JSON type, lists arrive as strings and
// report_config may be an object, a JSON string or a doubly encoded string. Every type in this
// package decodes leniently so that a malformed field degrades to its zero value instead of
// failing the whole render.
//
// Main Types:
//
// - Case: the full case record
// - ReportConfig: header/footer/signature bands, flags, analysis tables, EPI periodicity, questionnaires
// - Text, Bool, OptBool, Number, List: lenient scalar and list decoders
//
// Main Functions:
//
// - Parse: decodes a case record from JSON
// - ParseReportConfig: decodes report_config with fallback to the zero configuration
// - PlainText: reduces rich-text (HTML) narratives to plain text
package casedata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotInformed is the fallback shown for any missing display field.
const NotInformed = "Não informado"

// Case is one forensic case as exported by the case-management application.
type Case struct {
	ID                 Text `json:"id"`
	ProcessNumber      Text `json:"process_number"`
	ClaimantName       Text `json:"claimant_name"`
	DefendantName      Text `json:"defendant_name"`
	Court              Text `json:"court"`
	City               Text `json:"city"`
	DistributionDate   Text `json:"distribution_date"`
	InspectionDate     Text `json:"inspection_date"`
	ExpertName         Text `json:"expert_name"`
	ExpertRegistration Text `json:"expert_registration"`

	Objective             Text `json:"objective"`
	Methodology           Text `json:"methodology"`
	ActivitiesDescription Text `json:"activities_description"`
	InitialNarrative      Text `json:"initial_narrative"`
	DefenseNarrative      Text `json:"defense_narrative"`
	Conclusion            Text `json:"conclusion"`

	ClaimantPositions    List[Position]         `json:"claimant_positions"`
	Workplace            Workplace              `json:"workplace_characteristics"`
	EPIs                 List[EPI]              `json:"epis"`
	EPC                  Text                   `json:"epc"`
	Attendees            List[Attendee]         `json:"attendees"`
	Diligences           List[Diligence]        `json:"diligences"`
	DocumentsPresented   TextList               `json:"documents_presented"`
	FlammableProducts    List[FlammableProduct] `json:"flammable_products"`
	InsalubrityAnalysis  Text                   `json:"insalubrity_analysis"`
	PericulosityAnalysis Text                   `json:"periculosity_analysis"`
	InsalubrityResults   Text                   `json:"insalubrity_results"`
	PericulosityResults  Text                   `json:"periculosity_results"`
	ReportConfig         ReportConfig           `json:"report_config"`
}

// Position is one job held by the claimant. Period is free text that is expected to carry
// at least two DD/MM/YYYY dates.
type Position struct {
	Title       Text `json:"title"`
	Sector      Text `json:"sector"`
	Period      Text `json:"period"`
	Description Text `json:"description"`
}

// EPI is one personal protective equipment entry.
type EPI struct {
	Equipment  Text `json:"equipment"`
	CA         Text `json:"ca"`
	Protection Text `json:"protection"`
}

// UnmarshalJSON accepts either an object or a bare equipment name.
func (e *EPI) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = EPI{Equipment: Text(s)}
		return nil
	}
	type plain EPI
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = EPI(p)
	return nil
}

// Attendee is a person present at the diligence.
type Attendee struct {
	Name    Text `json:"name"`
	Role    Text `json:"role"`
	Company Text `json:"company"`
}

// UnmarshalJSON accepts either an object or a bare name.
func (a *Attendee) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Attendee{Name: Text(s)}
		return nil
	}
	type plain Attendee
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = Attendee(p)
	return nil
}

// Diligence is one inspection visit.
type Diligence struct {
	Date        Text `json:"date"`
	Time        Text `json:"time"`
	Location    Text `json:"location"`
	Description Text `json:"description"`
}

// FlammableProduct is a product handled at the workplace together with its safety data sheet (FISPQ).
type FlammableProduct struct {
	Name           Text `json:"name"`
	AttachmentPath Text `json:"attachment_path"`
	Notes          Text `json:"notes"`
}

// Parse decodes a case record. Only a payload that is not a JSON object is an error;
// badly typed fields fall back to their zero values.
func Parse(data []byte) (*Case, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("case data must be a JSON object")
	}
	var c Case
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return nil, fmt.Errorf("failed to decode case data: %w", err)
	}
	return &c, nil
}

// Or returns the text, or the fallback when the text is blank.
func Or(t Text, fallback string) string {
	if t.IsBlank() {
		return fallback
	}
	return t.Plain()
}
