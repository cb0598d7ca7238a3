package solver

// Schedule propagation for a fixed visit sequence. Arrival (not service
// completion) is checked against each node's window; waiting before a window
// opens is bounded by the slack budget.

type schedule struct {
	depart    int   // depot departure, clock minutes
	arrivals  []int // per sequence position, clock minutes
	end       int   // back at depot, clock minutes
	travelMin int
	meters    int
}

// scheduleSeq simulates seq departing the depot at depart. When the first
// infeasibility encountered is an over-slack wait, pushBy is the minimal
// extra departure delay that would bring that wait within the slack budget;
// the caller may retry with it.
func (p *Problem) scheduleSeq(seq []int, depart int) (schedule, bool, int) {
	sc := schedule{depart: depart, arrivals: make([]int, 0, len(seq))}
	t := depart
	prev := 0
	for _, node := range seq {
		drive := p.Matrix.Minutes[prev][node]
		sc.travelMin += drive
		sc.meters += p.Matrix.Meters[prev][node]
		t += drive
		w := p.Windows[node]
		if t < w.Start {
			wait := w.Start - t
			if wait > p.SlackMin {
				return schedule{}, false, wait - p.SlackMin
			}
			t = w.Start
		}
		if t > w.End {
			return schedule{}, false, 0
		}
		sc.arrivals = append(sc.arrivals, t)
		t += p.ServiceMin[node]
		prev = node
	}
	back := p.Matrix.Minutes[prev][0]
	sc.travelMin += back
	sc.meters += p.Matrix.Meters[prev][0]
	t += back
	if t > p.depotWindow().End {
		return schedule{}, false, 0
	}
	if t-depart > p.MaxSpanMin {
		return schedule{}, false, 0
	}
	sc.end = t
	return sc, true, 0
}

// earliestSchedule finds the minimal feasible depot departure for seq,
// starting from the working-day open and pushing the departure forward only
// as far as needed to keep every wait within the slack budget. This keeps
// arrival times minimal so routes do not depart earlier than necessary.
func (p *Problem) earliestSchedule(seq []int) (schedule, bool) {
	if len(seq) == 0 {
		dw := p.depotWindow()
		return schedule{depart: dw.Start, end: dw.Start}, true
	}
	// Each push advances the departure by at least a minute and a departure
	// past the depot close can never work, so the loop terminates.
	depart := p.depotWindow().Start
	for depart <= p.depotWindow().End {
		sc, ok, pushBy := p.scheduleSeq(seq, depart)
		if ok {
			return sc, true
		}
		if pushBy <= 0 {
			return schedule{}, false
		}
		depart += pushBy
	}
	return schedule{}, false
}

// feasibleSeq reports whether seq admits any feasible departure.
func (p *Problem) feasibleSeq(seq []int) bool {
	_, ok := p.earliestSchedule(seq)
	return ok
}

// seqTravelMin is the summed arc cost of depot -> seq -> depot.
func (p *Problem) seqTravelMin(seq []int) int {
	if len(seq) == 0 {
		return 0
	}
	total := 0
	prev := 0
	for _, node := range seq {
		total += p.Matrix.Minutes[prev][node]
		prev = node
	}
	return total + p.Matrix.Minutes[prev][0]
}
