package descriptor

import (
	"github.com/dominikbraun/graph"

	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// Site is the assembled descriptor graph for one static site.
//
// WwwRedirect and CnameRecord are nil when the www redirect is disabled.
type Site struct {
	Namespace          string
	Domain             string
	IncludeWwwRedirect bool

	Bucket          *Bucket
	SecurityHeaders *EdgeFunction
	WwwRedirect     *EdgeFunction
	Zone            *HostedZone
	Certificate     *Certificate
	Distribution    *Distribution
	AliasRecord     *AliasRecord
	CnameRecord     *CnameRecord

	order []Descriptor
	graph graph.Graph[string, Descriptor]
}

// aliases returns a fresh slice each call so the certificate and the
// distribution never share backing storage.
func (s *Site) aliases() []string {
	names := []string{s.Domain}
	if s.IncludeWwwRedirect {
		names = append(names, naming.WwwName(s.Domain))
	}
	return names
}

// Aliases returns the host names the distribution serves.
func (s *Site) Aliases() []string {
	return s.aliases()
}

// Descriptors returns every descriptor in construction order.
func (s *Site) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.order))
	copy(out, s.order)
	return out
}

// Count returns how many descriptors of kind the site holds.
func (s *Site) Count(kind Kind) int {
	n := 0
	for _, d := range s.order {
		if d.Kind() == kind {
			n++
		}
	}
	return n
}

// Order returns descriptor ids in a stable topological order. Ties are broken
// by construction order, so for a graph from Build it equals Descriptors.
func (s *Site) Order() ([]string, error) {
	index := make(map[string]int, len(s.order))
	for i, d := range s.order {
		index[d.ID()] = i
	}
	return graph.StableTopologicalSort(s.graph, func(a, b string) bool {
		return index[a] < index[b]
	})
}

// Graph returns a copy of the dependency graph. Edges point from a
// dependency to its dependent.
func (s *Site) Graph() (graph.Graph[string, Descriptor], error) {
	return s.graph.Clone()
}
