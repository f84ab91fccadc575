// Package grid provides fixed-size square grids for landscape channel data.
package grid

import (
	"fmt"
	"iter"
)

// Point is a vertex position on a square grid, 0-indexed.
type Point struct {
	X int
	Y int
}

// Pt returns the Point (x, y).
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Points iterates every position of a side×side grid in row-major
// order: X varies fastest, Y slowest. All grid traversal in this
// module uses this order; seam repair and log output depend on it.
func Points(side int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				if !yield(Point{X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// Grid is a side×side array of V stored in row-major order.
//
// Copying a Grid value shares the backing storage; use Clone when an
// independent copy is needed. Cells are diffed against multiple
// plugin versions, so callers clone at every ownership boundary.
type Grid[V any] struct {
	side  int
	cells []V
}

// New returns a zeroed side×side grid.
func New[V any](side int) Grid[V] {
	if side <= 0 {
		panic(fmt.Sprintf("grid: invalid side %d", side))
	}
	return Grid[V]{
		side:  side,
		cells: make([]V, side*side),
	}
}

// FromRows builds a grid from row-major rows. Panics if the rows do
// not form a square.
func FromRows[V any](rows [][]V) Grid[V] {
	g := New[V](len(rows))
	for y, row := range rows {
		if len(row) != g.side {
			panic(fmt.Sprintf("grid: row %d has %d cells, want %d", y, len(row), g.side))
		}
		copy(g.cells[y*g.side:(y+1)*g.side], row)
	}
	return g
}

// Side returns the grid side length.
func (g Grid[V]) Side() int {
	return g.side
}

func (g Grid[V]) index(p Point) int {
	if p.X < 0 || p.Y < 0 || p.X >= g.side || p.Y >= g.side {
		panic(fmt.Sprintf("grid: point (%d, %d) outside %d×%d grid", p.X, p.Y, g.side, g.side))
	}
	return p.Y*g.side + p.X
}

// Get returns the value at p.
func (g Grid[V]) Get(p Point) V {
	return g.cells[g.index(p)]
}

// Set stores v at p.
func (g Grid[V]) Set(p Point, v V) {
	g.cells[g.index(p)] = v
}

// Clone returns an independent copy of the grid.
func (g Grid[V]) Clone() Grid[V] {
	out := Grid[V]{side: g.side, cells: make([]V, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// Points iterates the grid positions in row-major order.
func (g Grid[V]) Points() iter.Seq[Point] {
	return Points(g.side)
}

// Fill sets every cell to v.
func (g Grid[V]) Fill(v V) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Cells exposes the backing row-major cell slice. Mutations write
// through to the grid.
func (g Grid[V]) Cells() []V {
	return g.cells
}
