// Package render draws snapshots of the flock and its networks.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/physics"
)

// ErrUnsupportedFormat is returned by GetRenderer for unknown formats.
var ErrUnsupportedFormat = errors.New("render: unsupported output format")

const (
	defaultDroneColor = "#4285F4"
	defaultEdgeColor  = "#666666"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format     string  // Output format (svg, ascii, json)
	Width      float64 // Width of the output
	Height     float64 // Height of the output
	Margin     float64 // Blank border around the drawing
	Background string  // Background color
	Timestamp  bool    // Include timestamp in visualization
	NodeSize   float64 // Drone marker radius
	EdgeWidth  float64 // Link stroke width
	FontSize   float64 // Font size for labels
	ShowLabels bool    // Show drone IDs
	ShowLinks  bool    // Draw network links
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render draws the frame using the provided options
	Render(frame *Frame, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// ContentType is the MIME type of the rendered output
	ContentType() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:     format,
		Width:      800,
		Height:     600,
		Margin:     20,
		Background: "#f8f8f8",
		Timestamp:  true,
		NodeSize:   4,
		EdgeWidth:  0.5,
		FontSize:   8,
		ShowLabels: false,
		ShowLinks:  true,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii", "txt":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Marker is one active drone in a frame.
type Marker struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Heading     float64 `json:"heading"`
	Network     string  `json:"network,omitempty"`
	Color       string  `json:"color"`
	Controlled  bool    `json:"controlled,omitempty"`
	Ammo        int     `json:"ammo"`
	Capacity    int     `json:"weapon_capacity"`
	Temperature int     `json:"temperature"`
}

// Edge is one undirected network link, listed once with Source < Target.
type Edge struct {
	Source  int64  `json:"source"`
	Target  int64  `json:"target"`
	Network string `json:"network"`
	Color   string `json:"color"`
}

// Legend summarises a network in the frame.
type Legend struct {
	Tag    string `json:"tag"`
	Color  string `json:"color"`
	Drones int    `json:"drones"`
	Links  int    `json:"links"`
}

// Frame is a point-in-time copy of everything a renderer draws.
type Frame struct {
	Tick     uint64    `json:"tick"`
	Markers  []Marker  `json:"drones"`
	Edges    []Edge    `json:"links"`
	Networks []Legend  `json:"networks"`
	Bound    orb.Bound `json:"-"`
}

// Capture copies the active drones of flock and the links of networks into
// a Frame. A drone takes the tag and color of the first network holding it.
func Capture(flock *physics.Flock, networks ...*graph.Network) *Frame {
	frame := &Frame{Tick: flock.Ticks()}

	owner := make(map[int64]*graph.Network)
	for _, net := range networks {
		for _, id := range net.IDs() {
			if _, ok := owner[id]; !ok {
				owner[id] = net
			}
		}
	}

	active := flock.Active()
	frame.Markers = make([]Marker, 0, len(active))
	for i, d := range active {
		m := Marker{
			ID:          d.ID,
			Name:        d.Name,
			X:           d.Position.X(),
			Y:           d.Position.Y(),
			Heading:     d.Heading,
			Color:       defaultDroneColor,
			Controlled:  d.UnderControl,
			Ammo:        d.Ammo,
			Capacity:    d.WeaponCapacity,
			Temperature: d.Temperature,
		}
		if net, ok := owner[d.ID]; ok {
			m.Network = net.Tag
			m.Color = colorOr(net.Color, defaultDroneColor)
		}
		frame.Markers = append(frame.Markers, m)

		if i == 0 {
			frame.Bound = d.Position.Bound()
		} else {
			frame.Bound = frame.Bound.Extend(d.Position)
		}
	}

	for _, net := range networks {
		color := colorOr(net.Color, defaultEdgeColor)
		links := 0
		for _, id := range net.IDs() {
			for _, nbr := range net.Neighbors(id) {
				if nbr > id {
					frame.Edges = append(frame.Edges, Edge{Source: id, Target: nbr, Network: net.Tag, Color: color})
					links++
				}
			}
		}
		frame.Networks = append(frame.Networks, Legend{Tag: net.Tag, Color: net.Color, Drones: net.Len(), Links: links})
	}
	return frame
}

func colorOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return c
}

// projection maps world coordinates onto a width x height canvas with y up.
type projection struct {
	bound         orb.Bound
	width, height float64
	margin        float64
	scale         float64
}

func newProjection(b orb.Bound, width, height, margin float64) projection {
	// a single drone or a collinear flock still needs an area to scale into
	if b.Max[0]-b.Min[0] < 1 || b.Max[1]-b.Min[1] < 1 {
		b = b.Pad(1)
	}
	sx := (width - 2*margin) / (b.Max[0] - b.Min[0])
	sy := (height - 2*margin) / (b.Max[1] - b.Min[1])
	return projection{bound: b, width: width, height: height, margin: margin, scale: math.Min(sx, sy)}
}

func (p projection) point(x, y float64) (float64, float64) {
	px := p.margin + (x-p.bound.Min[0])*p.scale
	py := p.height - p.margin - (y-p.bound.Min[1])*p.scale
	return px, py
}

func markerIndex(frame *Frame) map[int64]*Marker {
	idx := make(map[int64]*Marker, len(frame.Markers))
	for i := range frame.Markers {
		idx[frame.Markers[i].ID] = &frame.Markers[i]
	}
	return idx
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

func (r *SVGRenderer) ContentType() string {
	return "image/svg+xml"
}

// Render creates an SVG representation of the frame
func (r *SVGRenderer) Render(frame *Frame, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	proj := newProjection(frame.Bound, options.Width, options.Height, options.Margin)
	byID := markerIndex(frame)

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, options.Background)

	if options.ShowLinks {
		for _, e := range frame.Edges {
			a, b := byID[e.Source], byID[e.Target]
			if a == nil || b == nil {
				continue
			}
			x1, y1 := proj.point(a.X, a.Y)
			x2, y2 := proj.point(b.X, b.Y)
			fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g" stroke-opacity="0.6"/>
`, x1, y1, x2, y2, e.Color, options.EdgeWidth)
		}
	}

	for _, m := range frame.Markers {
		cx, cy := proj.point(m.X, m.Y)
		stroke := "rgba(0,0,0,0.3)"
		if m.Controlled {
			stroke = "#d93025"
		}
		fmt.Fprintf(&buf, `<circle cx="%.2f" cy="%.2f" r="%g" fill="%s" stroke="%s" stroke-width="1"><title>%s</title></circle>
`, cx, cy, options.NodeSize, m.Color, stroke, m.Name)

		// heading tick; screen y grows downwards
		hx := cx + 2*options.NodeSize*math.Cos(m.Heading)
		hy := cy - 2*options.NodeSize*math.Sin(m.Heading)
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"/>
`, cx, cy, hx, hy, m.Color)

		if options.ShowLabels {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="#333333" text-anchor="middle">%d</text>
`, cx, cy+options.NodeSize+options.FontSize, options.FontSize, m.ID)
		}
	}

	y := options.FontSize + 4
	for _, l := range frame.Networks {
		fmt.Fprintf(&buf, `<text x="5" y="%.2f" font-family="sans-serif" font-size="%g" fill="%s">%s: %d drones, %d links</text>
`, y, options.FontSize, colorOr(l.Color, defaultDroneColor), l.Tag, l.Drones, l.Links)
		y += options.FontSize + 2
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">tick %d, %s</text>
`, options.Height-5, frame.Tick, time.Now().Format("2006-01-02 15:04:05"))
	}

	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

func (r *ASCIIRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// networkSymbols are assigned to networks in frame order.
var networkSymbols = []rune{'o', 'x', '+', '#'}

const (
	controlledSymbol = '@'
	looseSymbol      = '*'
	linkSymbol       = '.'
)

// Render creates an ASCII representation of the frame
func (r *ASCIIRenderer) Render(frame *Frame, options *OutputOptions) ([]byte, error) {
	width := max(int(options.Width/10), 40)
	height := max(int(options.Height/20), 20)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	for i := 0; i < width; i++ {
		grid[0][i] = '-'
		grid[height-1][i] = '-'
	}
	for i := 0; i < height; i++ {
		grid[i][0] = '|'
		grid[i][width-1] = '|'
	}
	grid[0][0], grid[0][width-1] = '+', '+'
	grid[height-1][0], grid[height-1][width-1] = '+', '+'

	// one cell of margin inside the border
	proj := newProjection(frame.Bound, float64(width-3), float64(height-3), 0)
	cell := func(m *Marker) (int, int) {
		x, y := proj.point(m.X, m.Y)
		return clamp(int(math.Round(x))+1, 1, width-2), clamp(int(math.Round(y))+1, 1, height-2)
	}

	symbols := make(map[string]rune, len(frame.Networks))
	for i, l := range frame.Networks {
		symbols[l.Tag] = networkSymbols[i%len(networkSymbols)]
	}

	if options.ShowLinks {
		byID := markerIndex(frame)
		for _, e := range frame.Edges {
			a, b := byID[e.Source], byID[e.Target]
			if a == nil || b == nil {
				continue
			}
			x1, y1 := cell(a)
			x2, y2 := cell(b)
			drawLine(grid, x1, y1, x2, y2)
		}
	}

	for i := range frame.Markers {
		m := &frame.Markers[i]
		x, y := cell(m)
		sym, ok := symbols[m.Network]
		if !ok {
			sym = looseSymbol
		}
		if m.Controlled {
			sym = controlledSymbol
		}
		grid[y][x] = sym
	}

	var buf bytes.Buffer
	for _, row := range grid {
		buf.WriteString(string(row))
		buf.WriteByte('\n')
	}

	fmt.Fprintf(&buf, "tick %d, %d drones\n", frame.Tick, len(frame.Markers))
	for _, l := range frame.Networks {
		fmt.Fprintf(&buf, "%c %s: %d drones, %d links\n", symbols[l.Tag], l.Tag, l.Drones, l.Links)
	}
	fmt.Fprintf(&buf, "%c under control\n", controlledSymbol)
	if options.Timestamp {
		buf.WriteString(time.Now().Format("2006-01-02 15:04:05"))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// JSONRenderer outputs the frame as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

// Render creates a JSON representation of the frame
func (r *JSONRenderer) Render(frame *Frame, options *OutputOptions) ([]byte, error) {
	type jsonFrame struct {
		*Frame
		Bounds   [4]float64     `json:"bounds"`
		Metadata map[string]any `json:"metadata"`
	}

	f := *frame
	out := jsonFrame{
		Frame:  &f,
		Bounds: [4]float64{frame.Bound.Min[0], frame.Bound.Min[1], frame.Bound.Max[0], frame.Bound.Max[1]},
		Metadata: map[string]any{
			"width":      options.Width,
			"height":     options.Height,
			"droneCount": len(frame.Markers),
			"linkCount":  len(frame.Edges),
		},
	}
	if out.Markers == nil {
		out.Markers = []Marker{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	if options.Timestamp {
		out.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}
	return json.MarshalIndent(out, "", "  ")
}

// Clamp a value between lo and hi
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Draw a line on the ASCII grid using Bresenham's algorithm
func drawLine(grid [][]rune, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if x1 > 0 && x1 < len(grid[0])-1 && y1 > 0 && y1 < len(grid)-1 && grid[y1][x1] == ' ' {
			grid[y1][x1] = linkSymbol
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
