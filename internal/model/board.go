package model

import (
	"iter"
	"math/rand/v2"
	"slices"
)

// maxAutoPlaceAttempts bounds the random search in AutoPlace before it falls
// back to a deterministic scan, so adversarial configs can't spin forever.
const maxAutoPlaceAttempts = 1000

// Ship is a single vessel of a given size, identified by the size alone —
// spec §3 ties size to a named ShipType for documentation purposes only;
// multiple ships of the same size (e.g. two cruisers) are distinct values.
type Ship struct {
	Size int
}

// ShipPlacement anchors a Ship at a start coordinate and orientation. Its
// covered coordinates are derived, never stored.
type ShipPlacement struct {
	Ship        Ship
	Start       Coordinate
	Orientation Orientation
}

// Cells returns the coordinates this placement covers.
func (p ShipPlacement) Cells() []Coordinate {
	return segments(p.Start, p.Ship.Size, p.Orientation)
}

// Board is a single player's grid of ship placements.
type Board struct {
	Width, Height int
	Owner         string
	Placements    []ShipPlacement
	locked        bool
}

// NewBoard creates an empty board of the given dimensions.
func NewBoard(owner string, width, height int) *Board {
	return &Board{Owner: owner, Width: width, Height: height}
}

// Locked reports whether the board has been confirmed.
func (b *Board) Locked() bool { return b.locked }

// CanPlace reports whether a ship can legally be placed at start/orientation:
// every covered coordinate must be in bounds and disjoint from existing
// placements. It does not consider whether the board is locked.
func (b *Board) CanPlace(ship Ship, start Coordinate, o Orientation) bool {
	cells := segments(start, ship.Size, o)
	for _, c := range cells {
		if !b.inBounds(c) {
			return false
		}
	}
	return !b.collides(cells)
}

// Place adds a placement. Fails with IllegalState if the board is locked,
// BadRequest if out of bounds, or IllegalState (ErrShipOverlap) if it
// collides.
func (b *Board) Place(ship Ship, start Coordinate, o Orientation) error {
	if b.locked {
		return illegalState(ErrBoardLocked)
	}
	cells := segments(start, ship.Size, o)
	for _, c := range cells {
		if !b.inBounds(c) {
			return badRequest(ErrShipOutOfBounds)
		}
	}
	if b.collides(cells) {
		return illegalState(ErrShipOverlap)
	}
	b.Placements = append(b.Placements, ShipPlacement{Ship: ship, Start: start, Orientation: o})
	return nil
}

// Clear removes all placements. Only permitted while unlocked.
func (b *Board) Clear() error {
	if b.locked {
		return illegalState(ErrBoardLocked)
	}
	b.Placements = nil
	return nil
}

// Lock confirms the board. Idempotent and one-way.
func (b *Board) Lock() {
	b.locked = true
}

// AutoPlace fills an empty board with the given fleet by repeatedly
// sampling a random start/orientation and retrying on collision, bounded at
// maxAutoPlaceAttempts per ship with a deterministic scan fallback so
// adversarial (dense) configurations still terminate.
func (b *Board) AutoPlace(fleet []int, rng *rand.Rand) error {
	for _, size := range fleet {
		ship := Ship{Size: size}
		if placed := b.tryRandomPlacement(ship, rng); placed {
			continue
		}
		if !b.placeFirstFit(ship) {
			return illegalState(ErrFleetTooBig)
		}
	}
	return nil
}

func (b *Board) tryRandomPlacement(ship Ship, rng *rand.Rand) bool {
	for attempt := 0; attempt < maxAutoPlaceAttempts; attempt++ {
		o := Horizontal
		if rng.IntN(2) == 1 {
			o = Vertical
		}
		maxX, maxY := b.Width, b.Height
		if o == Horizontal {
			maxX = b.Width - ship.Size + 1
		} else {
			maxY = b.Height - ship.Size + 1
		}
		if maxX <= 0 || maxY <= 0 {
			return false
		}
		start := Coordinate{X: rng.IntN(maxX), Y: rng.IntN(maxY)}
		if b.CanPlace(ship, start, o) {
			_ = b.Place(ship, start, o)
			return true
		}
	}
	return false
}

// placeFirstFit deterministically scans every coordinate/orientation pair
// and places at the first legal spot. Used only as a fallback once the
// random search has exhausted its attempt budget.
func (b *Board) placeFirstFit(ship Ship) bool {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			for _, o := range []Orientation{Horizontal, Vertical} {
				start := Coordinate{X: x, Y: y}
				if b.CanPlace(ship, start, o) {
					_ = b.Place(ship, start, o)
					return true
				}
			}
		}
	}
	return false
}

// PlacementAt returns the placement covering c, if any.
func (b *Board) PlacementAt(c Coordinate) (ShipPlacement, bool) {
	for _, p := range b.Placements {
		if slices.Contains(p.Cells(), c) {
			return p, true
		}
	}
	return ShipPlacement{}, false
}

// Cells iterates over every coordinate on the board, in row-major order.
func (b *Board) Cells() iter.Seq[Coordinate] {
	return func(yield func(Coordinate) bool) {
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				if !yield(Coordinate{X: x, Y: y}) {
					return
				}
			}
		}
	}
}

func (b *Board) inBounds(c Coordinate) bool {
	return c.X >= 0 && c.X < b.Width && c.Y >= 0 && c.Y < b.Height
}

func (b *Board) collides(cells []Coordinate) bool {
	for _, p := range b.Placements {
		for _, occupied := range p.Cells() {
			if slices.Contains(cells, occupied) {
				return true
			}
		}
	}
	return false
}
