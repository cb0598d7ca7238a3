package solver

import (
	"context"
	"math/rand"
	"time"

	"fieldroute/internal/model"
)

// Metrics summarizes one search run.
type Metrics struct {
	Iterations       int   `json:"iterations"`
	Improvements     int   `json:"improvements"`
	ConstructionCost int   `json:"constructionCost"`
	BestCost         int   `json:"bestCost"`
	Unassigned       int   `json:"unassigned"`
	WallMs           int64 `json:"wallMs"`
}

// Solver runs one optimization over one Problem and is then discarded. It
// holds no state shared across runs, so concurrent requests each construct
// their own Solver.
//
// The search is a cheapest-insertion construction followed by guided local
// search: relocate, 2-opt and cross-exchange moves evaluated on a travel cost
// augmented with arc penalties, with the penalties of the most "utility-heavy"
// arcs raised whenever the search reaches a local optimum. Best-effort
// anytime: the best feasible full-coverage solution found inside the wall
// clock budget is returned.
type Solver struct {
	p      *Problem
	rng    *rand.Rand
	budget time.Duration

	penalty [][]int
	lambda  float64
}

// ProgressFunc receives best-cost snapshots during the search.
type ProgressFunc func(iteration, bestCost int)

func New(p *Problem, seed int64, budget time.Duration) *Solver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if budget <= 0 {
		budget = 30 * time.Second
	}
	n := p.nodes()
	pen := make([][]int, n)
	for i := range pen {
		pen[i] = make([]int, n)
	}
	return &Solver{
		p:       p,
		rng:     rand.New(rand.NewSource(seed)),
		budget:  budget,
		penalty: pen,
	}
}

// solution is a full assignment candidate: one node sequence per vehicle plus
// the set of nodes not yet placed.
type solution struct {
	routes     [][]int
	unassigned []int
}

func (s solution) clone() solution {
	out := solution{routes: make([][]int, len(s.routes))}
	for i, r := range s.routes {
		out.routes[i] = append([]int(nil), r...)
	}
	out.unassigned = append([]int(nil), s.unassigned...)
	return out
}

// Solve searches for a feasible assignment covering every stop. On success it
// returns the extracted result and search metrics; if no full coverage is
// found within the budget it returns ErrInfeasible and no partial result.
func (s *Solver) Solve(ctx context.Context, progress ProgressFunc) (*model.Result, Metrics, error) {
	start := time.Now()
	deadline := start.Add(s.budget)

	curr := s.construct()
	m := Metrics{ConstructionCost: s.trueCost(curr)}

	var best solution
	bestCost := -1
	if len(curr.unassigned) == 0 {
		best = curr.clone()
		bestCost = m.ConstructionCost
		if progress != nil {
			progress(0, bestCost)
		}
	}

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		m.Iterations++

		s.insertUnassigned(&curr)
		improved := s.localSearch(&curr, deadline)

		if len(curr.unassigned) == 0 {
			c := s.trueCost(curr)
			if bestCost < 0 || c < bestCost {
				best = curr.clone()
				bestCost = c
				m.Improvements++
				if progress != nil {
					progress(m.Iterations, bestCost)
				}
			}
		}

		if !improved {
			// Local optimum: raise penalties on the highest-utility arcs
			// so the augmented landscape pushes the search elsewhere.
			s.penalizeArcs(curr)
		}
	}

	m.WallMs = time.Since(start).Milliseconds()
	if bestCost < 0 {
		m.Unassigned = len(curr.unassigned)
		return nil, m, ErrInfeasible
	}
	m.BestCost = bestCost
	res := s.extract(best)
	return res, m, nil
}

// trueCost is the unpenalized objective: summed arc travel minutes.
func (s *Solver) trueCost(sol solution) int {
	total := 0
	for _, r := range sol.routes {
		total += s.p.seqTravelMin(r)
	}
	return total
}

// augCost adds the guided-local-search penalty term along every used arc.
func (s *Solver) augCost(sol solution) float64 {
	total := float64(s.trueCost(sol))
	for _, r := range sol.routes {
		prev := 0
		for _, node := range r {
			total += s.lambda * float64(s.penalty[prev][node])
			prev = node
		}
		if len(r) > 0 {
			total += s.lambda * float64(s.penalty[prev][0])
		}
	}
	return total
}

// construct builds the initial assignment by repeated cheapest insertion:
// each unplaced node is tried at every position of every route, and the
// globally cheapest feasible insertion is committed first.
func (s *Solver) construct() solution {
	sol := solution{routes: make([][]int, s.p.vehicles())}
	for node := 1; node < s.p.nodes(); node++ {
		sol.unassigned = append(sol.unassigned, node)
	}
	s.insertUnassigned(&sol)
	// Average arc cost scales the penalty term.
	arcs, sum := 0, 0
	for _, r := range sol.routes {
		sum += s.p.seqTravelMin(r)
		arcs += len(r) + 1
	}
	if arcs > 0 {
		s.lambda = 0.2 * float64(sum) / float64(arcs)
	}
	if s.lambda < 1 {
		s.lambda = 1
	}
	return sol
}

// insertUnassigned repeatedly commits the cheapest feasible insertion among
// all unassigned nodes. Nodes with no feasible position anywhere remain
// unassigned for a later attempt.
func (s *Solver) insertUnassigned(sol *solution) {
	for {
		bestNode, bestVehicle, bestPos := -1, -1, -1
		bestDelta := 0
		for ni, node := range sol.unassigned {
			for vi, r := range sol.routes {
				for pos := 0; pos <= len(r); pos++ {
					cand := insertAt(r, node, pos)
					if !s.p.feasibleSeq(cand) {
						continue
					}
					delta := s.p.seqTravelMin(cand) - s.p.seqTravelMin(r)
					if bestNode == -1 || delta < bestDelta {
						bestNode, bestVehicle, bestPos = ni, vi, pos
						bestDelta = delta
					}
				}
			}
		}
		if bestNode == -1 {
			return
		}
		node := sol.unassigned[bestNode]
		sol.routes[bestVehicle] = insertAt(sol.routes[bestVehicle], node, bestPos)
		sol.unassigned = append(sol.unassigned[:bestNode], sol.unassigned[bestNode+1:]...)
	}
}

// localSearch descends to a local optimum of the augmented cost using
// relocate, 2-opt and cross-exchange moves. Returns whether any move was
// applied.
func (s *Solver) localSearch(sol *solution, deadline time.Time) bool {
	any := false
	for {
		if time.Now().After(deadline) {
			return any
		}
		moved := s.relocateMove(sol) || s.twoOptMove(sol) || s.crossExchangeMove(sol)
		if !moved {
			return any
		}
		any = true
	}
}

// relocateMove moves a single node to its best improving position across all
// routes (first improvement).
func (s *Solver) relocateMove(sol *solution) bool {
	before := s.augCost(*sol)
	for vi, r := range sol.routes {
		for i := range r {
			node := r[i]
			removed := append(append([]int(nil), r[:i]...), r[i+1:]...)
			for wi := range sol.routes {
				target := sol.routes[wi]
				if wi == vi {
					target = removed
				}
				for pos := 0; pos <= len(target); pos++ {
					if wi == vi && (pos == i) {
						continue
					}
					cand := insertAt(target, node, pos)
					if !s.p.feasibleSeq(cand) {
						continue
					}
					trial := sol.clone()
					trial.routes[vi] = removed
					trial.routes[wi] = cand
					if wi == vi {
						trial.routes[vi] = cand
					}
					if s.augCost(trial)+1e-6 < before {
						*sol = trial
						return true
					}
				}
			}
		}
	}
	return false
}

// twoOptMove reverses a segment inside one route when it lowers the cost.
func (s *Solver) twoOptMove(sol *solution) bool {
	before := s.augCost(*sol)
	for vi, r := range sol.routes {
		n := len(r)
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := append([]int(nil), r...)
				for a, b := i, k; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if !s.p.feasibleSeq(cand) {
					continue
				}
				trial := sol.clone()
				trial.routes[vi] = cand
				if s.augCost(trial)+1e-6 < before {
					*sol = trial
					return true
				}
			}
		}
	}
	return false
}

// crossExchangeMove swaps one node between two routes.
func (s *Solver) crossExchangeMove(sol *solution) bool {
	before := s.augCost(*sol)
	for a := 0; a < len(sol.routes); a++ {
		for b := a + 1; b < len(sol.routes); b++ {
			ra, rb := sol.routes[a], sol.routes[b]
			for i := range ra {
				for j := range rb {
					ca := append([]int(nil), ra...)
					cb := append([]int(nil), rb...)
					ca[i], cb[j] = cb[j], ca[i]
					if !s.p.feasibleSeq(ca) || !s.p.feasibleSeq(cb) {
						continue
					}
					trial := sol.clone()
					trial.routes[a] = ca
					trial.routes[b] = cb
					if s.augCost(trial)+1e-6 < before {
						*sol = trial
						return true
					}
				}
			}
		}
	}
	return false
}

// penalizeArcs bumps the penalty of the arcs with maximal utility
// cost/(1+penalty) in the current solution, the classic guided local search
// diversification step. Ties are broken at random so repeated local optima
// do not always push on the same arc.
func (s *Solver) penalizeArcs(sol solution) {
	type arc struct{ from, to int }
	var maxUtil float64
	var candidates []arc
	visit := func(from, to int) {
		cost := float64(s.p.Matrix.Minutes[from][to])
		util := cost / float64(1+s.penalty[from][to])
		if util > maxUtil {
			maxUtil = util
			candidates = candidates[:0]
		}
		if util == maxUtil && util > 0 {
			candidates = append(candidates, arc{from, to})
		}
	}
	for _, r := range sol.routes {
		prev := 0
		for _, node := range r {
			visit(prev, node)
			prev = node
		}
		if len(r) > 0 {
			visit(prev, 0)
		}
	}
	if len(candidates) == 0 {
		return
	}
	pick := candidates[s.rng.Intn(len(candidates))]
	s.penalty[pick.from][pick.to]++
}

func insertAt(seq []int, node, pos int) []int {
	out := make([]int, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, node)
	out = append(out, seq[pos:]...)
	return out
}
