// Package ingest loads network topologies (lists of drone links) from JSON,
// CSV and plain-text log files and applies them to communication networks.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/dronenet/graph"
)

var (
	// ErrUnsupportedFormat is returned for unknown file formats.
	ErrUnsupportedFormat = errors.New("ingest: unsupported format")
	// ErrMalformed is returned when the input cannot be parsed.
	ErrMalformed = errors.New("ingest: malformed input")
)

// Link is an undirected connection request between two drone IDs
type Link struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// Topology is a parsed list of links
type Topology struct {
	Source string
	Links  []Link
}

// DataProcessor defines the interface that all topology processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns the links they describe
	ProcessData(data []byte) (*Topology, error)

	// GetName returns the name of the processor
	GetName() string
}

// JSONProcessor handles JSON data of the form {"links": [{"source": 1, "target": 2}]}.
// The key "edges" is accepted as an alias of "links".
type JSONProcessor struct{}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) (*Topology, error) {
	var doc struct {
		Links []Link `json:"links"`
		Edges []Link `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: error parsing JSON: %v", ErrMalformed, err)
	}
	return &Topology{Source: "json", Links: append(doc.Links, doc.Edges...)}, nil
}

// CSVProcessor handles CSV data with a header naming the source and target columns
type CSVProcessor struct{}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data
func (p *CSVProcessor) ProcessData(data []byte) (*Topology, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: error reading CSV header: %v", ErrMalformed, err)
	}

	sourceIdx, targetIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return nil, fmt.Errorf("%w: CSV must contain source and target columns", ErrMalformed)
	}

	topo := &Topology{Source: "csv"}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error reading CSV row %d: %v", ErrMalformed, line, err)
		}
		link, err := parseLink(row[sourceIdx], row[targetIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, line, err)
		}
		topo.Links = append(topo.Links, link)
	}
	return topo, nil
}

// LogProcessor handles line oriented text where each line is a relationship,
// e.g. "1 -> 2" or "3 connected to 4". Lines matching no pattern are skipped.
type LogProcessor struct{}

// GetName returns the name of the processor
func (p *LogProcessor) GetName() string {
	return "Log Processor"
}

var logSeparators = []string{" -> ", " => ", " <-> ", " connected to ", " linked to ", " - "}

// ProcessData processes log data
func (p *LogProcessor) ProcessData(data []byte) (*Topology, error) {
	topo := &Topology{Source: "log"}
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, sep := range logSeparators {
			parts := strings.Split(line, sep)
			if len(parts) != 2 {
				continue
			}
			link, err := parseLink(parts[0], parts[1])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, n+1, err)
			}
			topo.Links = append(topo.Links, link)
			break
		}
	}
	return topo, nil
}

func parseLink(source, target string) (Link, error) {
	s, err := strconv.ParseInt(strings.TrimSpace(source), 10, 64)
	if err != nil {
		return Link{}, fmt.Errorf("invalid source %q", source)
	}
	t, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
	if err != nil {
		return Link{}, fmt.Errorf("invalid target %q", target)
	}
	return Link{Source: s, Target: t}, nil
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return &JSONProcessor{}, nil
	case "csv":
		return &CSVProcessor{}, nil
	case "log", "txt":
		return &LogProcessor{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ProcessorForFile picks a processor from the file extension
func ProcessorForFile(name string) (DataProcessor, error) {
	return GetProcessor(filepath.Ext(name))
}

// Apply connects every link whose endpoints are both registered in the same
// network. Links spanning two networks or naming unknown drones are skipped,
// since the networks are never cross-linked.
func Apply(topo *Topology, networks ...*graph.Network) (applied, skipped int) {
	for _, l := range topo.Links {
		connected := false
		for _, net := range networks {
			if net.Contains(l.Source) && net.Contains(l.Target) && l.Source != l.Target {
				net.Connect(l.Source, l.Target)
				connected = true
				break
			}
		}
		if connected {
			applied++
		} else {
			skipped++
		}
	}
	return applied, skipped
}
