package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a single segment, e.g. `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return strings.Trim(name, "-") != ""
}

// ParseSegment parses `name` or `name[index]`.
func ParseSegment(raw string) (Segment, error) {
	if raw == "" {
		return Segment{}, fmt.Errorf("segment cannot be empty")
	}
	matches := segmentRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Segment{}, fmt.Errorf("invalid segment format: %q", raw)
	}
	name := matches[1]
	if !isValidSegmentName(name) {
		return Segment{}, fmt.Errorf("invalid segment name: %q", name)
	}
	seg := NewSegment(name)
	if matches[2] != "" {
		index, err := strconv.Atoi(matches[2])
		if err != nil {
			return Segment{}, fmt.Errorf("invalid segment index %q: %w", raw, err)
		}
		seg.Index = index
	}
	return seg, nil
}

// ParsePortRef parses `node.port` or `node.port[index]`. The node part is
// everything before the last dot.
func ParsePortRef(raw string) (PortRef, error) {
	i := strings.LastIndex(raw, ".")
	if i <= 0 || i == len(raw)-1 {
		return PortRef{}, fmt.Errorf("port reference %q: want <node>.<port>", raw)
	}
	node := raw[:i]
	if _, err := ParseSegment(node); err != nil {
		return PortRef{}, fmt.Errorf("port reference %q: node: %w", raw, err)
	}
	port, err := ParseSegment(raw[i+1:])
	if err != nil {
		return PortRef{}, fmt.Errorf("port reference %q: port: %w", raw, err)
	}
	return PortRef{Node: node, Port: port}, nil
}
