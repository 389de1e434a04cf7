package models

// Cluster is a group of stores sharing one grid cell, summarized by the
// running centroid of their coordinates. Member order is insertion order,
// which in turn follows the input ordering of the store slice.
type Cluster struct {
	Centroid LatLng       `json:"centroid"`
	Stores   []StorePoint `json:"stores"`
}

// Size returns the member count.
func (c Cluster) Size() int {
	return len(c.Stores)
}

// MeanEffectiveValue averages the effective values of the members that have
// one. Nil when no member carries a value.
func (c Cluster) MeanEffectiveValue() *float64 {
	var sum float64
	var n int
	for _, s := range c.Stores {
		if v := s.EffectiveValue(); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// Partition is the outcome of classifying a store set at a given zoom:
// exactly one of the two slices is populated.
type Partition struct {
	Clusters    []Cluster    `json:"clusters"`
	Individuals []StorePoint `json:"individuals"`
}

// Clustered reports whether the partition is in aggregate form.
func (p Partition) Clustered() bool {
	return p.Individuals == nil
}
