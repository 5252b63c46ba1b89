package model

// CandidateScore is the ranking score of one number. It is never persisted.
type CandidateScore struct {
	Number     int
	Historical float64
	Recent     float64
	Balance    float64
	Jitter     float64
}

// Total sums the four components.
func (c CandidateScore) Total() float64 {
	return c.Historical + c.Recent + c.Balance + c.Jitter
}

// Prediction is one front/back selection plus backups drawn from the top pools.
type Prediction struct {
	Front      []int
	Back       []int
	Alternates []Combination
}

// Combination is a front/back pair.
type Combination struct {
	Front []int
	Back  []int
}
