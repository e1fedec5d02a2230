package scenario

import (
	"fmt"

	"expansion-planner/internal/config"
	"expansion-planner/internal/data"
)

// FromConfig loads the dataset a configuration points at and converts the model
// sections into an Input. Scenario names are resolved through catalog (the built-in
// samples when catalog is nil).
func FromConfig(c *config.Config, catalog *data.Catalog) (Input, error) {
	in, err := inputFor(c)
	if err != nil {
		return Input{}, err
	}
	switch {
	case c.DataFile != "":
		in.Name = c.DataFile
		if in.Dataset, err = data.Load(c.DataFile); err != nil {
			return Input{}, err
		}
	default:
		if catalog == nil {
			catalog = data.BuiltinCatalog()
		}
		in.Name = c.Scenario
		if in.Dataset, _, err = catalog.Open(c.Scenario); err != nil {
			return Input{}, fmt.Errorf("scenario %s: %w", c.Scenario, err)
		}
	}
	return in, nil
}

// WithDataset is FromConfig for a dataset already in memory. DataFile and Scenario of c
// are ignored; name labels the run.
func WithDataset(c *config.Config, name string, ds data.Dataset) (Input, error) {
	if ds == nil {
		return Input{}, fmt.Errorf("scenario %s: no data", name)
	}
	cc := *c
	cc.DataFile, cc.Scenario = "", name
	in, err := inputFor(&cc)
	if err != nil {
		return Input{}, err
	}
	in.Name = name
	in.Dataset = ds
	return in, nil
}

func inputFor(c *config.Config) (Input, error) {
	if err := c.Validate(); err != nil {
		return Input{}, err
	}
	opts, err := c.FormulationOptions()
	if err != nil {
		return Input{}, err
	}
	return Input{
		Year:        c.Year,
		Formulation: opts,
		Results:     c.ResultOptions(),
		Timeout:     c.Solver.Timeout,
	}, nil
}
