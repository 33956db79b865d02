// Package container implements the data-container boundary of the
// simulator: the archive description that supplies input geometry, the
// DynamicResponse extension that carries the simulated spectrum, and its
// self-describing binary file format.
package container

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sosl/pycyc/internal/axes"
)

// Archive describes the observation whose geometry seeds a simulation
// run. It stands in for the generic archive container of the original
// data-reduction pipeline; only the fields the simulator consumes are
// carried.
type Archive struct {
	Source          string  `yaml:"source"`
	NChan           int     `yaml:"nchan"`
	NPol            int     `yaml:"npol"`
	Bandwidth       float64 `yaml:"bandwidth_mhz"`
	CentreFrequency float64 `yaml:"centre_frequency_mhz"`
}

// DefaultArchive returns the geometry used when no archive file is given.
func DefaultArchive() Archive {
	return Archive{
		Source:          "simulated",
		NChan:           256,
		NPol:            1,
		Bandwidth:       64.0,
		CentreFrequency: 1400.0,
	}
}

// LoadArchive reads an archive description from a YAML file.
func LoadArchive(path string) (Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Archive{}, fmt.Errorf("container: reading archive: %w", err)
	}

	a := DefaultArchive()
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Archive{}, fmt.Errorf("container: parsing archive: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Archive{}, err
	}
	return a, nil
}

// Validate reports a configuration error for unusable archive fields.
func (a Archive) Validate() error {
	if a.NChan <= 0 {
		return fmt.Errorf("container: archive nchan must be positive, got %d", a.NChan)
	}
	if a.NPol <= 0 {
		return fmt.Errorf("container: archive npol must be positive, got %d", a.NPol)
	}
	if a.Bandwidth <= 0 {
		return fmt.Errorf("container: archive bandwidth must be positive, got %g MHz", a.Bandwidth)
	}
	return nil
}

// Geometry combines the archive's frequency-domain fields with the
// time-domain configuration of one run.
func (a Archive) Geometry(ntime int, samplingInterval float64) axes.Geometry {
	return axes.Geometry{
		NChan:            a.NChan,
		NTime:            ntime,
		Bandwidth:        a.Bandwidth,
		CentreFrequency:  a.CentreFrequency,
		SamplingInterval: samplingInterval,
	}
}
