package solver

import "fieldroute/internal/model"

// extract walks every vehicle's sequence into the public Result. Each route
// is scheduled at its earliest feasible departure, so reported arrivals are
// the minimum the window constraints admit for the chosen visiting order.
// Vehicles with no stops are dropped from the emitted route list; the
// aggregate totals therefore cover exactly the emitted routes.
func (s *Solver) extract(sol solution) *model.Result {
	res := &model.Result{
		Success:          true,
		Degraded:         s.p.Degraded,
		UnlocatedStopIDs: s.p.UnlocatedStopIDs,
	}
	for vi, seq := range sol.routes {
		if len(seq) == 0 {
			continue
		}
		sc, ok := s.p.earliestSchedule(seq)
		if !ok {
			// Solve only accepts feasible sequences; keep the route out of
			// the result rather than emit a window-violating schedule.
			continue
		}
		tech := s.p.Technicians[vi]
		route := model.Route{
			VehicleID:      tech.ID,
			Technician:     tech,
			DistanceMeters: sc.meters,
			TravelMin:      sc.travelMin,
			TotalMin:       sc.end,
		}
		for i, node := range seq {
			stop := s.p.Stops[node-1]
			route.Visits = append(route.Visits, model.StopVisit{
				Stop:       stop,
				ArrivalMin: sc.arrivals[i],
				ServiceMin: s.p.ServiceMin[node],
				Window:     s.p.Windows[node],
			})
		}
		res.Routes = append(res.Routes, route)
		res.TotalDistanceMeters += sc.meters
		res.TotalMin += sc.end
		res.VehiclesUsed++
	}
	return res
}
