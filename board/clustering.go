// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"sort"

	"github.com/nearwork/nearwork/spatial"
)

// ClusterMember is a posting inside a cluster with its distance from the
// cluster's principal posting.
type ClusterMember struct {
	Posting                 *JobPosting `json:"posting"`
	DistanceFromPrincipalKm float64     `json:"distance_from_principal_km"`
	IsPrincipal             bool        `json:"is_principal"`
}

// PostingCluster is a group of active postings at (nearly) the same place.
type PostingCluster struct {
	Point   spatial.Point    `json:"point"`
	Members []*ClusterMember `json:"members"`
}

// clusterPostings groups postings into clusters based on a distance
// threshold in kilometers. A posting joins a cluster when it lies within the
// threshold of any current member. Singleton clusters are dropped: a lone
// posting is not a cluster.
func clusterPostings(postings []*JobPosting, thresholdKm float64) ([]*PostingCluster, error) {
	visited := make([]bool, len(postings))

	var result []*PostingCluster

	for i, p1 := range postings {
		if visited[i] {
			continue
		}

		cluster := []*JobPosting{p1}
		visited[i] = true

		for j, p2 := range postings {
			if visited[j] {
				continue
			}

			// Check distance against all members of the current cluster
			for _, member := range cluster {
				d, err := p2.Point.DistanceKm(member.Point)
				if err != nil {
					return nil, err
				}

				if d <= thresholdKm {
					cluster = append(cluster, p2)
					visited[j] = true

					break
				}
			}
		}

		if len(cluster) < 2 {
			continue
		}

		// The oldest posting anchors the cluster
		sort.Slice(cluster, func(a, b int) bool {
			return cluster[a].ID < cluster[b].ID
		})

		principal := cluster[0]

		members := make([]*ClusterMember, len(cluster))

		for k, p := range cluster {
			d, err := principal.Point.DistanceKm(p.Point)
			if err != nil {
				return nil, err
			}

			members[k] = &ClusterMember{
				Posting:                 p,
				DistanceFromPrincipalKm: d,
				IsPrincipal:             k == 0,
			}
		}

		result = append(result, &PostingCluster{
			Point:   principal.Point,
			Members: members,
		})
	}

	return result, nil
}
