package backend

import (
	"fmt"
	"math"
)

// NoiseModel parameterizes the local simulator's error injection. It is a
// classical stand-in: gates act on basis states, so depolarizing errors become
// random resets of the touched lines and relaxation becomes 1 -> 0 decay.
type NoiseModel struct {
	GateError1   float64 `yaml:"gateError1" json:"gateError1"`     // per single-line gate
	GateError2   float64 `yaml:"gateError2" json:"gateError2"`     // per controlled gate
	T1           float64 `yaml:"t1" json:"t1"`                     // relaxation time, same unit as GateTime
	T2           float64 `yaml:"t2" json:"t2"`                     // dephasing time, no effect on basis states
	GateTime     float64 `yaml:"gateTime" json:"gateTime"`         // duration of one gate
	ReadoutError float64 `yaml:"readoutError" json:"readoutError"` // per measured bit
}

// DefaultNoise mirrors the strong noise profile used for the 16:1 demo.
func DefaultNoise() NoiseModel {
	return NoiseModel{
		GateError1: 0.2,
		GateError2: 0.3,
		T1:         1e3,
		T2:         2e3,
		GateTime:   0.1,
	}
}

// IsZero reports whether the model injects no errors at all.
func (n NoiseModel) IsZero() bool {
	return n.GateError1 == 0 && n.GateError2 == 0 && n.ReadoutError == 0 && n.decayProbability() == 0
}

// Validate checks probabilities and relaxation constants.
func (n NoiseModel) Validate() error {
	for name, p := range map[string]float64{
		"gateError1":   n.GateError1,
		"gateError2":   n.GateError2,
		"readoutError": n.ReadoutError,
	} {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("backend: noise %s %v outside [0,1]", name, p)
		}
	}
	if n.T1 < 0 || n.T2 < 0 || n.GateTime < 0 {
		return fmt.Errorf("backend: noise times must not be negative")
	}
	if n.T1 > 0 && n.T2 > 2*n.T1 {
		return fmt.Errorf("backend: noise t2 %v exceeds 2*t1 %v", n.T2, 2*n.T1)
	}
	if n.T2 > 0 && n.T1 == 0 {
		return fmt.Errorf("backend: noise t2 set without t1")
	}
	return nil
}

// decayProbability is the chance a line at 1 relaxes to 0 during one gate.
func (n NoiseModel) decayProbability() float64 {
	if n.T1 <= 0 || n.GateTime <= 0 {
		return 0
	}
	return 1 - math.Exp(-n.GateTime/n.T1)
}

func (n NoiseModel) String() string {
	return fmt.Sprintf("p1=%g p2=%g t1=%g t2=%g time=%g readout=%g",
		n.GateError1, n.GateError2, n.T1, n.T2, n.GateTime, n.ReadoutError)
}
