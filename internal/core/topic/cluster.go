package topic

import (
	"sort"

	"github.com/lexatlas/citegraph/internal/core/model"
)

// Clusterer groups the opinions of a subgraph into clusters of related
// authority using label propagation over the citation edges. Clusters
// pre-filter the cross-court pairs handed to the conflict detector, so
// detection never scans all pairs of an unrelated corpus.
type Clusterer struct {
	MaxIterations int
}

func NewClusterer() *Clusterer {
	return &Clusterer{MaxIterations: 20}
}

// Cluster treats citations as undirected adjacency; parallel edges count
// as stronger connections. Deterministic: nodes are processed in id
// order and label ties break lexicographically. Singleton clusters are
// dropped since a lone opinion cannot pair with anything.
func (c *Clusterer) Cluster(nodes []model.Opinion, edges []model.CitationEdge) [][]model.Opinion {
	if len(nodes) == 0 {
		return nil
	}

	nodeMap := make(map[string]model.Opinion, len(nodes))
	adj := make(map[string]map[string]int, len(nodes))
	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = make(map[string]int)
	}

	for _, e := range edges {
		if _, ok := nodeMap[e.SourceID]; !ok {
			continue
		}
		if _, ok := nodeMap[e.TargetID]; !ok {
			continue
		}
		adj[e.SourceID][e.TargetID]++
		adj[e.TargetID][e.SourceID]++
	}

	labels := make(map[string]string, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.ID
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	for iter := 0; iter < c.MaxIterations; iter++ {
		changed := 0

		for _, id := range ids {
			neighbors := adj[id]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			maxCount := 0
			for neighbor, weight := range neighbors {
				label := labels[neighbor]
				counts[label] += weight
				if counts[label] > maxCount {
					maxCount = counts[label]
				}
			}

			var best []string
			for label, count := range counts {
				if count == maxCount {
					best = append(best, label)
				}
			}
			sort.Strings(best)
			winner := best[len(best)-1]

			if labels[id] != winner {
				labels[id] = winner
				changed++
			}
		}

		if changed == 0 {
			break
		}
	}

	grouped := make(map[string][]model.Opinion)
	for _, id := range ids {
		grouped[labels[id]] = append(grouped[labels[id]], nodeMap[id])
	}

	labelKeys := make([]string, 0, len(grouped))
	for label := range grouped {
		labelKeys = append(labelKeys, label)
	}
	sort.Strings(labelKeys)

	var clusters [][]model.Opinion
	for _, label := range labelKeys {
		if members := grouped[label]; len(members) >= 2 {
			clusters = append(clusters, members)
		}
	}
	return clusters
}

// CrossCourtPairs enumerates the candidate pairs within each cluster
// whose members come from different courts, already canonicalized by id.
func CrossCourtPairs(clusters [][]model.Opinion) [][2]model.Opinion {
	var pairs [][2]model.Opinion
	for _, members := range clusters {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.CourtID == b.CourtID {
					continue
				}
				if a.ID > b.ID {
					a, b = b, a
				}
				pairs = append(pairs, [2]model.Opinion{a, b})
			}
		}
	}
	return pairs
}
