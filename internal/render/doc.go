// Package render turns a cycle state and particle snapshot into abstract
// drawing primitives.
//
// A [Frame] holds one closed contour, one progress ring, a segment per
// particle and two HUD texts, all in surface pixels with the origin at the
// top left. Hosts implement [Surface] to draw it:
//
//	c, _ := render.NewCoordinator(render.DefaultTheme())
//	frame := c.Render(render.Input{Width: 800, Height: 600, State: st, ...})
//	surface.Draw(frame)
//
// Geometry is laid out for a 600 pixel reference and scaled by the smaller
// surface side.
package render
