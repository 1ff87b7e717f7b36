package acoustics

import (
	"fmt"
	"math"
	"os"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/loaders"
	"github.com/df07/go-audio-propagation/pkg/material"
)

// WriteIRWave writes one pair's IR as a 32-bit float WAV file
func (c *Context) WriteIRWave(listener, source int, path string) error {
	c.mu.RLock()
	p, err := c.pairResult(listener, source)
	var rate float64
	if err == nil {
		rate = c.ir.sampleRate
	}
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	return loaders.WriteWAV(path, p.Channels, int(math.Round(rate)))
}

// WriteIRMetrics writes one pair's per-band metrics as a text table
func (c *Context) WriteIRMetrics(listener, source int, path string) error {
	c.mu.RLock()
	p, err := c.pairResult(listener, source)
	var centers []float64
	if err == nil {
		centers = c.ir.centers
	}
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %v: %w", path, err, ErrInvalidParam)
	}
	fmt.Fprintf(f, "listener %d source %d\n", listener, source)
	if err := loaders.WriteMetricsText(f, centers, p.Metrics); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSceneMeshOBJ writes the current world geometry as an OBJ coloured
// by material, for checking placement and category assignment
func (c *Context) WriteSceneMeshOBJ(path string) error {
	c.mu.RLock()
	if err := c.checkOpen(); err != nil {
		c.mu.RUnlock()
		return err
	}
	var tris []*geometry.Triangle
	for i, obj := range c.scene.Objects {
		tris = append(tris, obj.WorldTriangles(i, c.library)...)
	}
	db := c.library.Database()
	c.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %v: %w", path, err, ErrInvalidParam)
	}
	colors := make(map[*material.Material]core.Vec3)
	err = loaders.WriteSceneOBJ(f, tris, func(t *geometry.Triangle) core.Vec3 {
		col, ok := colors[t.Material]
		if !ok {
			col = materialColor(db.Index(t.Material))
			colors[t.Material] = col
		}
		return col
	})
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// materialColor spreads material indices around the hue circle by the
// golden ratio. The default material (-1) is grey.
func materialColor(index int) core.Vec3 {
	if index < 0 {
		return core.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	}
	h := math.Mod(float64(index)*0.618033988749895, 1)
	return hsvToRGB(h, 0.6, 0.9)
}

func hsvToRGB(h, s, v float64) core.Vec3 {
	i := math.Floor(h * 6)
	f := h*6 - i
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)
	switch int(i) % 6 {
	case 0:
		return core.Vec3{X: v, Y: t, Z: p}
	case 1:
		return core.Vec3{X: q, Y: v, Z: p}
	case 2:
		return core.Vec3{X: p, Y: v, Z: t}
	case 3:
		return core.Vec3{X: p, Y: q, Z: v}
	case 4:
		return core.Vec3{X: t, Y: p, Z: v}
	}
	return core.Vec3{X: v, Y: p, Z: q}
}
