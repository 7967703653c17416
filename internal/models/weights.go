package models

// WeightState tracks each producer's influence weight plus the rotation
// bookkeeping the reputation pass needs. Weights default to 1/N.
type WeightState struct {
	Weights  map[ProducerID]float64 `json:"weights"`
	NewHires map[ProducerID]bool    `json:"new_hires"`
	// Hits holds the rolling directional-accuracy record per producer:
	// 1 for a call whose sign matched the realized return, 0 otherwise.
	Hits map[ProducerID][]int `json:"hits"`
}

func NewWeightState(producers []ProducerID) WeightState {
	w := WeightState{
		Weights:  make(map[ProducerID]float64, len(producers)),
		NewHires: make(map[ProducerID]bool, len(producers)),
		Hits:     make(map[ProducerID][]int, len(producers)),
	}
	if len(producers) == 0 {
		return w
	}
	even := 1.0 / float64(len(producers))
	for _, p := range producers {
		w.Weights[p] = even
	}
	return w
}

func (w WeightState) Clone() WeightState {
	out := WeightState{
		Weights:  make(map[ProducerID]float64, len(w.Weights)),
		NewHires: make(map[ProducerID]bool, len(w.NewHires)),
		Hits:     make(map[ProducerID][]int, len(w.Hits)),
	}
	for k, v := range w.Weights {
		out.Weights[k] = v
	}
	for k, v := range w.NewHires {
		out.NewHires[k] = v
	}
	for k, v := range w.Hits {
		hh := make([]int, len(v))
		copy(hh, v)
		out.Hits[k] = hh
	}
	return out
}

// Record appends one directional-accuracy observation.
func (w WeightState) Record(p ProducerID, hit bool) {
	v := 0
	if hit {
		v = 1
	}
	w.Hits[p] = append(w.Hits[p], v)
}

// Accuracy returns the hit rate over the most recent n observations,
// or 0.5 when there is no history yet.
func (w WeightState) Accuracy(p ProducerID, n int) float64 {
	hits := w.Hits[p]
	if len(hits) == 0 {
		return 0.5
	}
	if n > 0 && len(hits) > n {
		hits = hits[len(hits)-n:]
	}
	sum := 0
	for _, h := range hits {
		sum += h
	}
	return float64(sum) / float64(len(hits))
}
