// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single tenure search.
type Summary struct {
	TargetName  string   `json:"targetName"`
	Field       string   `json:"field"`
	Original    float64  `json:"original"`
	Value       float64  `json:"value"`
	Budget      float64  `json:"budget"`
	Installment float64  `json:"installment"`
	Headroom    float64  `json:"headroom"`
	Iterations  int      `json:"iterations"`
	Converged   bool     `json:"converged"`
	Notes       []string `json:"notes,omitempty"`
}

// Feasible reports whether the chosen value keeps the installment within
// budget.
func (s Summary) Feasible() bool {
	return s.Headroom >= 0
}
