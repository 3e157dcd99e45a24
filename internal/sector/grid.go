package sector

import "sort"

// Grid is a cluster's sector layout: sectors 1..X*Y numbered row-major in
// rows of width X. The edge helpers key on the row width X, so they hold for
// non-square clusters too.
type Grid struct {
	X int
	Y int
}

func (g Grid) Size() int {
	return g.X * g.Y
}

func (g Grid) Contains(n int) bool {
	return n >= 1 && n <= g.Size()
}

func (g Grid) TopRow(n int) bool {
	return n <= g.X
}

func (g Grid) BottomRow(n int) bool {
	return n > g.Size()-g.X
}

func (g Grid) LeftColumn(n int) bool {
	return (n-1)%g.X == 0
}

func (g Grid) RightColumn(n int) bool {
	return n%g.X == 0
}

// Neighbors returns the sectors adjacent to n, diagonals included, in
// ascending order. Neighbors never wrap across a grid edge.
func (g Grid) Neighbors(n int) []int {
	if !g.Contains(n) {
		return nil
	}

	top, bottom := g.TopRow(n), g.BottomRow(n)
	left, right := g.LeftColumn(n), g.RightColumn(n)

	var out []int
	add := func(ok bool, m int) {
		if ok {
			out = append(out, m)
		}
	}

	add(!top && !left, n-g.X-1)
	add(!top, n-g.X)
	add(!top && !right, n-g.X+1)
	add(!left, n-1)
	add(!right, n+1)
	add(!bottom && !left, n+g.X-1)
	add(!bottom, n+g.X)
	add(!bottom && !right, n+g.X+1)

	sort.Ints(out)
	return out
}
