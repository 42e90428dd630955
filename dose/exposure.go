package dose

import (
	"errors"
	"fmt"

	"github.com/radkit/spekdose/spek"
)

// Errors returned by exposure validation.
var (
	ErrInvalidCurrent  = errors.New("dose: tube current must be positive")
	ErrInvalidTime     = errors.New("dose: exposure time must be positive")
	ErrInvalidDistance = errors.New("dose: source-to-skin distance must be positive")
	ErrInvalidField    = errors.New("dose: field diameter must not be negative")
)

// Exposure is one clinical exposure setting.
type Exposure struct {
	KVp           float64       `json:"kvp"`
	MA            float64       `json:"ma"`
	TimeS         float64       `json:"time_s"`
	AnodeAngleDeg float64       `json:"anode_angle_deg"`
	Target        string        `json:"target"`
	SSDCM         float64       `json:"ssd_cm"`
	Filters       []spek.Filter `json:"filters,omitempty"`

	// FieldDiameterCM enables backscatter correction when positive.
	FieldDiameterCM float64 `json:"field_diameter_cm,omitempty"`
	// Phantom is the backscatter phantom material. Only water is
	// tabulated; the field is carried for reporting.
	Phantom string `json:"phantom,omitempty"`
}

// MAs returns the tube charge in milliampere-seconds.
func (e Exposure) MAs() float64 {
	return e.MA * e.TimeS
}

// WithDefaults returns a copy of e with zero fields replaced by the
// clinical defaults (12 deg tungsten anode at 100 cm).
func (e Exposure) WithDefaults() Exposure {
	if e.AnodeAngleDeg == 0 {
		e.AnodeAngleDeg = 12
	}

	if e.Target == "" {
		e.Target = "W"
	}

	if e.SSDCM == 0 {
		e.SSDCM = spek.RefDistanceCM
	}

	if e.Phantom == "" && e.FieldDiameterCM > 0 {
		e.Phantom = "Water"
	}

	return e
}

// Validate checks e after defaulting.
func (e Exposure) Validate() error {
	if err := e.params().Validate(); err != nil {
		return err
	}

	if e.MA <= 0 {
		return ErrInvalidCurrent
	}

	if e.TimeS <= 0 {
		return ErrInvalidTime
	}

	if e.SSDCM <= 0 {
		return ErrInvalidDistance
	}

	if e.FieldDiameterCM < 0 {
		return ErrInvalidField
	}

	for _, f := range e.Filters {
		if f.ThicknessMM < 0 {
			return fmt.Errorf("%w: %s %v mm", spek.ErrNegativeThickness, f.Material, f.ThicknessMM)
		}
	}

	return nil
}

// params maps the exposure onto engine parameters.
func (e Exposure) params() spek.Params {
	return spek.Params{
		KVp:           e.KVp,
		AnodeAngleDeg: e.AnodeAngleDeg,
		Target:        e.Target,
	}.WithDefaults()
}
