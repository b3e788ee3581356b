package export

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/samber/lo"

	"go.viam.com/gridplan/motionplan"
)

// RenderOptions control PNG rendering.
type RenderOptions struct {
	// Pixels per grid cell.
	Scale    int
	DrawTree bool
}

// DefaultRenderOptions draws the tree at two pixels per cell.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Scale: 2, DrawTree: true}
}

// Render draws blocked cells in black on white, the tree in light gray, path in green, the start in
// blue and the goal in red. Image y grows downward with grid y.
func Render(view PlanView, path motionplan.Path, opts RenderOptions) image.Image {
	scale := float64(max(opts.Scale, 1))
	grid := view.Grid()

	dc := gg.NewContext(grid.Width()*int(scale), grid.Height()*int(scale))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Each cell is one pixel short on each axis so adjacent blocked cells keep a grid line.
	cellSize := max(scale-1, 1)
	dc.SetRGB(0, 0, 0)
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if grid.IsCellObstacle(x, y) {
				dc.DrawRectangle(float64(x)*scale, float64(y)*scale, cellSize, cellSize)
			}
		}
	}
	dc.Fill()

	if opts.DrawTree {
		nodes := view.Nodes()
		byID := lo.KeyBy(nodes, func(n motionplan.Node) motionplan.NodeID {
			return n.ID
		})
		dc.SetRGB255(200, 200, 200)
		dc.SetLineWidth(1)
		for _, n := range nodes {
			if n.IsRoot() {
				continue
			}
			parent := byID[n.Parent]
			dc.DrawLine(parent.Point.X*scale, parent.Point.Y*scale, n.Point.X*scale, n.Point.Y*scale)
		}
		dc.Stroke()
	}

	if len(path) >= 2 {
		dc.SetRGB255(0, 255, 0)
		dc.SetLineWidth(2)
		for i := 1; i < len(path); i++ {
			dc.DrawLine(path[i-1].X*scale, path[i-1].Y*scale, path[i].X*scale, path[i].Y*scale)
		}
		dc.Stroke()
	}

	radius := max(3, scale*2)
	start, goal := view.Start(), view.Goal()
	dc.SetRGB255(0, 0, 255)
	dc.DrawCircle(start.X*scale, start.Y*scale, radius)
	dc.Fill()
	dc.SetRGB255(255, 0, 0)
	dc.DrawCircle(goal.X*scale, goal.Y*scale, radius)
	dc.Fill()

	return dc.Image()
}

// SavePNG renders to a PNG file.
func SavePNG(filename string, view PlanView, path motionplan.Path, opts RenderOptions) error {
	img := Render(view, path, opts)
	return gg.SavePNG(filename, img)
}
