package descriptor

import (
	"fmt"
	"io"
	"strings"

	"github.com/emicklei/dot"
)

// Format selects the graph rendering.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// ParseFormat accepts "dot" or "mermaid", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatDOT, "":
		return FormatDOT, nil
	case FormatMermaid:
		return FormatMermaid, nil
	default:
		return "", fmt.Errorf("unknown graph format %q (want dot or mermaid)", s)
	}
}

// WriteDOT renders the site graph to w.
func (s *Site) WriteDOT(w io.Writer, format Format) error {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")
	g.Attr("label", s.Domain)

	nodes := make(map[string]dot.Node, len(s.order))
	for _, d := range s.order {
		n := g.Node(d.ID()).Label(nodeLabel(d))
		switch d.Kind() {
		case KindHostedZone:
			n.Attr("shape", "ellipse").Attr("style", "dashed")
		case KindEdgeFunction:
			n.Attr("shape", "component")
		default:
			n.Attr("shape", "box")
		}
		nodes[d.ID()] = n
	}
	for _, d := range s.order {
		for _, dep := range d.DependsOn() {
			e := g.Edge(nodes[dep.ID()], nodes[d.ID()])
			if c, ok := d.(*CnameRecord); ok && dep == Descriptor(c.After) {
				e.Attr("style", "dotted")
			}
		}
	}

	var out string
	switch format {
	case FormatMermaid:
		out = dot.MermaidGraph(g, dot.MermaidTopToBottom)
	case FormatDOT, "":
		out = g.String()
	default:
		return fmt.Errorf("unknown graph format %q", format)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

func nodeLabel(d Descriptor) string {
	detail := ""
	switch v := d.(type) {
	case *Bucket:
		detail = v.Name
	case *EdgeFunction:
		detail = string(v.EventType)
	case *HostedZone:
		detail = v.ZoneName
	case *Certificate:
		detail = v.ValidationRegion
	case *AliasRecord:
		detail = v.RecordName
	case *CnameRecord:
		detail = v.RecordName
	}
	if detail == "" {
		return fmt.Sprintf("%s\n[%s]", d.ID(), d.Kind())
	}
	return fmt.Sprintf("%s\n[%s] %s", d.ID(), d.Kind(), detail)
}
