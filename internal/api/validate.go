package api

import (
	"fmt"

	"fieldroute/internal/model"
)

func validateOptimizeRequest(req *model.OptimizeRequest) error {
	if req.TimeBudgetSec < 0 {
		return fmt.Errorf("timeBudgetSec must be >= 0")
	}
	if req.TimeBudgetSec > 300 {
		return fmt.Errorf("timeBudgetSec must be <= 300")
	}
	switch req.DepotPolicy {
	case "", "explicit", "centroid", "first-stop":
	default:
		return fmt.Errorf("unknown depotPolicy: %s (allowed: explicit,centroid,first-stop)", req.DepotPolicy)
	}
	if req.DepotPolicy == "explicit" && (req.Depot == nil || req.Depot.IsZero()) {
		return fmt.Errorf("depotPolicy explicit requires a depot coordinate")
	}
	return nil
}

func validateStops(stops []model.Stop) error {
	for i, s := range stops {
		if s.Name == "" {
			return fmt.Errorf("stop[%d]: name is required", i)
		}
		if s.ServiceMin < 0 {
			return fmt.Errorf("stop[%d]: serviceMin must be >= 0", i)
		}
		if s.Priority < 0 || s.Priority > 5 {
			return fmt.Errorf("stop[%d]: priority must be in 0..5", i)
		}
	}
	return nil
}

func validateTechnicians(techs []model.Technician) error {
	for i, t := range techs {
		if t.Name == "" {
			return fmt.Errorf("technician[%d]: name is required", i)
		}
	}
	return nil
}
