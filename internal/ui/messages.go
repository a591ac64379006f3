package ui

import (
	"time"

	"rydm/internal/geo"
)

// loopMsg carries one scheduler callback into the update loop.
type loopMsg struct{ fn func() }

type tickMsg time.Time

type locationSelectedMsg struct{ coord geo.Coord }

type releasePinMsg struct{ tab tab }
