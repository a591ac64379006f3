package surface

import (
	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/preview"
)

const idleRingOpacity = 0.55

type ring struct {
	degrees float64
	opacity float64
}

// Pin is one placed cover on a surface. It is the preview.Marker of its
// controller and lives until the next placement.
type Pin struct {
	coord geo.Coord
	track domain.Track
	ring  ring
	dim   float64
	ctrl  *preview.Controller
}

func (p *Pin) Coord() geo.Coord                 { return p.coord }
func (p *Pin) Track() domain.Track              { return p.track }
func (p *Pin) Ring() (degrees, opacity float64) { return p.ring.degrees, p.ring.opacity }
func (p *Pin) Dim() float64                     { return p.dim }
func (p *Pin) State() preview.State             { return p.ctrl.State() }

// StartPreview restarts this pin's preview without a gesture.
func (p *Pin) StartPreview() { p.ctrl.StartPreview() }

func (p *Pin) SetRing(degrees, opacity float64) {
	p.ring = ring{degrees: degrees, opacity: opacity}
}

func (p *Pin) SetDim(opacity float64) {
	p.dim = opacity
}
