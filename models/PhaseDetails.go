package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// PhaseDetails is the phase-specific document of a ConstructionPhase. Exactly one
// variant exists per PhaseType.
type PhaseDetails interface {
	PhaseType() PhaseType
}

type PilingDetails struct {
	NumberOfPiles  int     `json:"numberOfPiles"`
	Depth          float64 `json:"depth,omitempty"`
	Diameter       float64 `json:"diameter,omitempty"`
	CompletedPiles int     `json:"completedPiles"`
}

type RaftDetails struct {
	Thickness     float64 `json:"thickness,omitempty"`
	Area          float64 `json:"area,omitempty"`
	ConcreteGrade string  `json:"concreteGrade,omitempty"`
}

type PlinthDetails struct {
	Height      float64 `json:"height,omitempty"`
	BeamDetails string  `json:"beamDetails,omitempty"`
}

// Counter is a total/completed pair used for columns, beams and walls.
type Counter struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type SlabPour struct {
	Status         WorkStatus `json:"status,omitempty"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
}

type Slabs struct {
	Area        float64  `json:"area,omitempty"`
	Thickness   float64  `json:"thickness,omitempty"`
	ChhatBarhai SlabPour `json:"chhatBarhai"`
}

type GreyStructureDetails struct {
	Columns Counter `json:"columns"`
	Beams   Counter `json:"beams"`
	Slabs   Slabs   `json:"slabs"`
}

type Electrical struct {
	WiringStatus          WorkStatus `json:"wiringStatus,omitempty"`
	SwitchBoardsInstalled bool       `json:"switchBoardsInstalled"`
	MainBoardInstalled    bool       `json:"mainBoardInstalled"`
}

type Plumbing struct {
	Status            WorkStatus `json:"status,omitempty"`
	PipesInstalled    bool       `json:"pipesInstalled"`
	FixturesInstalled bool       `json:"fixturesInstalled"`
}

type GasLines struct {
	Status WorkStatus `json:"status,omitempty"`
}

type DoorFrames struct {
	Total     int `json:"total"`
	Installed int `json:"installed"`
}

type AreaWork struct {
	Status WorkStatus `json:"status,omitempty"`
	Area   float64    `json:"area,omitempty"`
}

type Painting struct {
	Status WorkStatus `json:"status,omitempty"`
	Coats  int        `json:"coats,omitempty"`
}

type Fitting struct {
	Installed int `json:"installed"`
	Total     int `json:"total"`
}

type Fittings struct {
	Doors         Fitting `json:"doors"`
	Windows       Fitting `json:"windows"`
	Lights        Fitting `json:"lights"`
	Switches      Fitting `json:"switches"`
	SanitaryItems Fitting `json:"sanitaryItems"`
}

type FinishingDetails struct {
	Walls      Counter    `json:"walls"`
	Electrical Electrical `json:"electrical"`
	Plumbing   Plumbing   `json:"plumbing"`
	GasLines   GasLines   `json:"gasLines"`
	DoorFrames DoorFrames `json:"doorFrames"`
	Plastering AreaWork   `json:"plastering"`
	Painting   Painting   `json:"painting"`
	Tiling     AreaWork   `json:"tiling"`
	Fittings   Fittings   `json:"fittings"`
}

type ElevationDetails struct {
	PlasteringStatus WorkStatus `json:"plasteringStatus,omitempty"`
	PaintingStatus   WorkStatus `json:"paintingStatus,omitempty"`
}

type FinalChecksDetails struct {
	Checklist []string `json:"checklist,omitempty"`
	Remarks   string   `json:"remarks,omitempty"`
}

func (PilingDetails) PhaseType() PhaseType        { return PhasePiling }
func (RaftDetails) PhaseType() PhaseType          { return PhaseRaft }
func (PlinthDetails) PhaseType() PhaseType        { return PhasePlinth }
func (GreyStructureDetails) PhaseType() PhaseType { return PhaseGreyStructure }
func (FinishingDetails) PhaseType() PhaseType     { return PhaseFinishing }
func (ElevationDetails) PhaseType() PhaseType     { return PhaseElevation }
func (FinalChecksDetails) PhaseType() PhaseType   { return PhaseFinalChecks }

// DecodePhaseDetails reads raw JSON into the variant for phase type t. Empty
// input yields the zero variant.
func DecodePhaseDetails(t PhaseType, raw []byte) (PhaseDetails, error) {
	var d PhaseDetails
	switch t {
	case PhasePiling:
		d = &PilingDetails{}
	case PhaseRaft:
		d = &RaftDetails{}
	case PhasePlinth:
		d = &PlinthDetails{}
	case PhaseGreyStructure:
		d = &GreyStructureDetails{}
	case PhaseFinishing:
		d = &FinishingDetails{}
	case PhaseElevation:
		d = &ElevationDetails{}
	case PhaseFinalChecks:
		d = &FinalChecksDetails{}
	default:
		return nil, fmt.Errorf("unknown phase type %q", t)
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, fmt.Errorf("decode %s details: %w", t, err)
		}
	}
	return d, nil
}

// EncodePhaseDetails renders a variant back to a JSON column value.
func EncodePhaseDetails(d PhaseDetails) (datatypes.JSON, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
