package levels

import (
	"sort"

	"tickerpulse/models"
)

const (
	defaultEpsFraction = 0.02
	defaultMinSamples  = 2
)

// DBSCANClusterer groups nearby extrema prices into PriceLevels using a
// 1-D variant of DBSCAN: eps is expressed as a fraction of the dataset's
// median price so the clusterer adapts to the instrument's price scale.
type DBSCANClusterer struct {
	EpsFraction float64
	MinSamples  int
}

func NewDBSCANClusterer() *DBSCANClusterer {
	return &DBSCANClusterer{EpsFraction: defaultEpsFraction, MinSamples: defaultMinSamples}
}

// ClusterLevels clusters extrema by price. Each resulting PriceLevel's
// price is the cluster mean, touches is the cluster size, firstTouch/
// lastTouch are the min/max timestamps in the cluster, and type is taken
// from the extremum closest to the cluster mean. Points DBSCAN labels as
// noise are discarded.
func (c *DBSCANClusterer) ClusterLevels(extrema []models.ExtremaPoint) []models.PriceLevel {
	if len(extrema) == 0 {
		return nil
	}

	eps := c.eps(extrema)
	minSamples := c.MinSamples
	if minSamples <= 0 {
		minSamples = defaultMinSamples
	}

	sorted := make([]models.ExtremaPoint, len(extrema))
	copy(sorted, extrema)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	labels := make([]int, len(sorted)) // 0 = unvisited, -1 = noise, >0 = cluster id
	clusterID := 0

	for i := range sorted {
		if labels[i] != 0 {
			continue
		}
		neighbors := regionQuery(sorted, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = -1
			continue
		}
		clusterID++
		labels[i] = clusterID
		seeds := append([]int{}, neighbors...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == -1 {
				labels[j] = clusterID
			}
			if labels[j] != 0 {
				continue
			}
			labels[j] = clusterID
			more := regionQuery(sorted, j, eps)
			if len(more) >= minSamples {
				seeds = append(seeds, more...)
			}
		}
	}

	clusters := make(map[int][]models.ExtremaPoint)
	for i, label := range labels {
		if label <= 0 {
			continue
		}
		clusters[label] = append(clusters[label], sorted[i])
	}

	ids := make([]int, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	levels := make([]models.PriceLevel, 0, len(clusters))
	for _, id := range ids {
		levels = append(levels, buildLevel(clusters[id]))
	}
	return levels
}

func (c *DBSCANClusterer) eps(extrema []models.ExtremaPoint) float64 {
	frac := c.EpsFraction
	if frac <= 0 {
		frac = defaultEpsFraction
	}
	prices := make([]float64, len(extrema))
	for i, e := range extrema {
		prices[i] = e.Price
	}
	sort.Float64s(prices)
	median := prices[len(prices)/2]
	return median * frac
}

func regionQuery(sorted []models.ExtremaPoint, idx int, eps float64) []int {
	var neighbors []int
	for j := range sorted {
		if absDiff(sorted[j].Price, sorted[idx].Price) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func buildLevel(cluster []models.ExtremaPoint) models.PriceLevel {
	var sumPrice float64
	first, last := cluster[0].Timestamp, cluster[0].Timestamp
	for _, e := range cluster {
		sumPrice += e.Price
		if e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	mean := sumPrice / float64(len(cluster))

	closest := cluster[0]
	closestDist := absDiff(closest.Price, mean)
	for _, e := range cluster[1:] {
		if dist := absDiff(e.Price, mean); dist < closestDist {
			closest = e
			closestDist = dist
		}
	}

	return models.PriceLevel{
		Price:      mean,
		Type:       closest.Type,
		Touches:    len(cluster),
		FirstTouch: first,
		LastTouch:  last,
	}
}

// FilterClusters keeps only levels with at least minTouches touches.
func (c *DBSCANClusterer) FilterClusters(levels []models.PriceLevel, minTouches int) []models.PriceLevel {
	out := make([]models.PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.Touches >= minTouches {
			out = append(out, l)
		}
	}
	return out
}
