package ui

import (
	"math"

	"github.com/cwarden/skuld/internal/schedule"
)

const (
	headerRows    = 1
	statusRows    = 2
	minColWidth   = 6
	sidebarWidth  = 24
	sidebarMinFit = 100
	eps           = 1e-6
)

// rowSteps are the minutes one grid row may stand for, finest first.
var rowSteps = []int{5, 10, 15, 20, 30, 60, 120}

// grid maps terminal cells to day columns and time rows. Every column is one
// whole day of the surface interval; only dayStart to dayEnd is drawn.
type grid struct {
	days      int
	dayStart  int // minutes after midnight
	dayEnd    int
	step      int // minutes per row
	rows      int
	timeWidth int
	colWidth  int
	top       int
}

func newGrid(width, height, days, startHour, endHour, timeWidth int) grid {
	g := grid{
		days:      days,
		dayStart:  startHour * 60,
		dayEnd:    endHour * 60,
		timeWidth: timeWidth,
		top:       headerRows,
	}
	if g.days < 1 {
		g.days = 1
	}

	avail := height - headerRows - statusRows
	if avail < 1 {
		avail = 1
	}
	span := g.dayEnd - g.dayStart
	g.step = rowSteps[len(rowSteps)-1]
	for _, step := range rowSteps {
		if (span+step-1)/step <= avail {
			g.step = step
			break
		}
	}
	g.rows = (span + g.step - 1) / g.step
	if g.rows > avail {
		g.rows = avail
	}

	g.colWidth = (width - timeWidth) / g.days
	if g.colWidth < minColWidth {
		g.colWidth = minColWidth
	}
	return g
}

func (g grid) width() int {
	return g.timeWidth + g.days*g.colWidth
}

// rowMinute is the minute of day at which row starts.
func (g grid) rowMinute(row int) int {
	return g.dayStart + row*g.step
}

func (g grid) colX(day int) int {
	return g.timeWidth + day*g.colWidth
}

// cell resolves a terminal cell to a day column and row, clamped into the grid.
// inside is false when the cell lies outside the drawn grid.
func (g grid) cell(x, y int) (day, row int, inside bool) {
	inside = x >= g.timeWidth && x < g.width() && y >= g.top && y < g.top+g.rows

	day = (x - g.timeWidth) / g.colWidth
	if x < g.timeWidth {
		day = 0
	}
	if day >= g.days {
		day = g.days - 1
	}
	row = y - g.top
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return day, row, inside
}

// position maps a row to the surface. With end set it is the end of the row,
// which is what a resize drag aims at.
func (g grid) position(day, row int, end bool) schedule.Position {
	minute := g.rowMinute(row)
	if end {
		minute += g.step
	}
	if minute > 24*60 {
		minute = 24 * 60
	}
	return schedule.DayPosition(day, float64(minute)/(24*60), g.days)
}

// rowOf converts a fraction of a day into a fractional row.
func (g grid) rowOf(within float64) float64 {
	return (within*24*60 - float64(g.dayStart)) / float64(g.step)
}

// block is a rectangle laid out in cells.
type block struct {
	rect schedule.Rect
	x, y int
	w, h int
	// clipped marks a block whose start lies above the drawn hours.
	clipped bool
}

func (b block) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

// onHandle reports whether (x, y) is the resize handle: the bottom row, or the
// last cell of a one-row block.
func (b block) onHandle(x, y int) bool {
	if b.h > 1 {
		return y == b.y+b.h-1
	}
	return x == b.x+b.w-1
}

func (g grid) block(r schedule.Rect) (block, bool) {
	top := math.Floor(g.rowOf(r.Top) + eps)
	bottom := math.Ceil(g.rowOf(r.Bottom()) - eps)
	if bottom <= top {
		bottom = top + 1
	}
	if bottom <= 0 || top >= float64(g.rows) {
		return block{}, false
	}

	b := block{rect: r}
	if top < 0 {
		top = 0
		b.clipped = true
	}
	if bottom > float64(g.rows) {
		bottom = float64(g.rows)
	}
	b.y = g.top + int(top)
	b.h = int(bottom - top)

	// One cell of every column is the separator.
	inner := float64(g.colWidth - 1)
	left := int(math.Floor(r.X()*inner + eps))
	right := int(math.Floor((r.X()+r.Width())*inner + eps))
	b.x = g.colX(r.Day) + 1 + left
	b.w = right - left
	if b.w < 1 {
		b.w = 1
	}
	return b, true
}

// blocks lays out rects in draw order, later blocks above earlier ones.
func (g grid) blocks(rects []schedule.Rect) []block {
	out := make([]block, 0, len(rects))
	for _, r := range rects {
		if b, ok := g.block(r); ok {
			out = append(out, b)
		}
	}
	return out
}

// hit finds the topmost block under (x, y).
func hit(blocks []block, x, y int) (block, bool) {
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].contains(x, y) {
			return blocks[i], true
		}
	}
	return block{}, false
}
