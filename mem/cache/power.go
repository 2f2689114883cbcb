package cache

// PowerSpec holds the energy and timing parameters of one level. Energies
// are per access (joules), the idle energy is a rate applied to the total
// simulated time, and times are in seconds.
type PowerSpec struct {
	ActiveEnergy    float64 `yaml:"active_energy" json:"active_energy"`
	IdleEnergy      float64 `yaml:"idle_energy" json:"idle_energy"`
	AccessTime      float64 `yaml:"access_time" json:"access_time"`
	LowerAccessTime float64 `yaml:"lower_access_time" json:"lower_access_time"`
	TransferPenalty float64 `yaml:"transfer_penalty" json:"transfer_penalty"`
}

// accessCoefficient is the energy charged per access.
func (p PowerSpec) accessCoefficient() float64 {
	return p.ActiveEnergy*p.AccessTime + p.TransferPenalty
}

// writebackCoefficient is the energy charged per writeback received.
func (p PowerSpec) writebackCoefficient() float64 {
	return p.ActiveEnergy*(p.AccessTime-p.LowerAccessTime) + p.TransferPenalty
}

func (p PowerSpec) validate() string {
	switch {
	case p.ActiveEnergy < 0:
		return "active energy must not be negative"
	case p.IdleEnergy < 0:
		return "idle energy must not be negative"
	case p.AccessTime < 0:
		return "access time must not be negative"
	case p.LowerAccessTime < 0:
		return "lower level access time must not be negative"
	case p.TransferPenalty < 0:
		return "transfer penalty must not be negative"
	case p.AccessTime < p.LowerAccessTime:
		return "access time must not be shorter than the lower level access time"
	}

	return ""
}
