package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"sync"

	"github.com/zlnvch/cocreate/models"
)

type Tool string

const (
	ToolPen    Tool = "pen"
	ToolSquare Tool = "square"
	ToolCircle Tool = "circle"
	ToolText   Tool = "text"
	ToolEraser Tool = "eraser"
)

const (
	strokeWidth = 2
	eraserSize  = 10

	// Every layer holds a full RGBA surface, so a board costs up to
	// (maxLayers+1) * maxPixels * 4 bytes including the export composite.
	maxDimension = 4096
	maxPixels    = 4096 * 1024
	maxLayers    = 8
)

var (
	ErrInvalidTool   = errors.New("invalid tool")
	ErrInvalidSize   = errors.New("invalid canvas size")
	ErrLayerNotFound = errors.New("layer not found")
	ErrTooManyLayers = errors.New("too many layers")
)

var (
	darkBackground  = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	lightBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	darkStroke      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	lightStroke     = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
)

func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case ToolPen, ToolSquare, ToolCircle, ToolText, ToolEraser:
		return t, nil
	}
	return "", ErrInvalidTool
}

func Background(dark bool) color.RGBA {
	if dark {
		return darkBackground
	}
	return lightBackground
}

func StrokeColor(dark bool) color.RGBA {
	if dark {
		return darkStroke
	}
	return lightStroke
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type layer struct {
	models.Layer
	surface *image.RGBA
}

// Board records freehand strokes onto per-layer raster surfaces. It is
// Idle until a pointer-down and Dragging until pointer-up or leave. Until
// Mount gives it a size, every drawing operation is a no-op.
type Board struct {
	mu          sync.Mutex
	width       int
	height      int
	dark        bool
	tool        Tool
	layers      []*layer
	selected    string
	nextLayerId int
	dragging    bool
	last        Point
	strokeColor color.RGBA
}

func NewBoard(dark bool) *Board {
	b := &Board{dark: dark, tool: ToolPen}
	b.addLayerLocked()
	return b
}

// Mount sizes the board and allocates blank surfaces for every layer.
// Remounting discards what was drawn, like resizing a canvas element.
func (b *Board) Mount(width int, height int) error {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension || width*height > maxPixels {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.width = width
	b.height = height
	for _, l := range b.layers {
		l.surface = b.newSurface()
	}
	b.dragging = false
	return nil
}

// Unmount releases every surface. Layers, tool and theme survive until the
// next Mount.
func (b *Board) Unmount() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width = 0
	b.height = 0
	for _, l := range b.layers {
		l.surface = nil
	}
	b.dragging = false
}

func (b *Board) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted()
}

func (b *Board) mounted() bool {
	return b.width > 0 && b.height > 0
}

func (b *Board) newSurface() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, b.width, b.height))
}

func (b *Board) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Board) SetTheme(dark bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dark = dark
}

func (b *Board) SelectTool(t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tool = t
	return nil
}

func (b *Board) Tool() Tool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tool
}

func (b *Board) Dragging() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dragging
}

func (b *Board) PointerDown(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mounted() {
		return
	}
	b.dragging = true
	b.last = p
	b.strokeColor = StrokeColor(b.dark)
}

func (b *Board) PointerMove(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mounted() || !b.dragging {
		return
	}

	if target := b.drawableLayer(); target != nil {
		switch b.tool {
		case ToolPen:
			drawLine(target.surface, b.last, p, b.strokeColor, strokeWidth)
		case ToolEraser:
			eraseSquare(target.surface, p, eraserSize)
		}
	}
	b.last = p
}

func (b *Board) PointerUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dragging = false
}

// PointerLeave ends the gesture the same way pointer-up does.
func (b *Board) PointerLeave() {
	b.PointerUp()
}

// Clear wipes every layer; the composite then shows only the theme
// background.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mounted() {
		return
	}
	for _, l := range b.layers {
		l.surface = b.newSurface()
	}
}

// Composite flattens the visible layers over the theme background. It
// returns nil while the board is unmounted.
func (b *Board) Composite() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mounted() {
		return nil
	}

	dst := b.newSurface()
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: Background(b.dark)}, image.Point{}, draw.Src)
	for _, l := range b.layers {
		if !l.Visible || l.surface == nil {
			continue
		}
		draw.Draw(dst, dst.Bounds(), l.surface, image.Point{}, draw.Over)
	}
	return dst
}

// ExportPNG writes the composite as PNG. It reports false and writes
// nothing while the board is unmounted.
func (b *Board) ExportPNG(w io.Writer) (bool, error) {
	img := b.Composite()
	if img == nil {
		return false, nil
	}
	if err := png.Encode(w, img); err != nil {
		return true, err
	}
	return true, nil
}

func (b *Board) Layers() []models.Layer {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Layer, 0, len(b.layers))
	for _, l := range b.layers {
		out = append(out, l.Layer)
	}
	return out
}

func (b *Board) SelectedLayer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// AddLayer appends a visible, unlocked layer and selects it.
func (b *Board) AddLayer() (models.Layer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.layers) >= maxLayers {
		return models.Layer{}, fmt.Errorf("%w: at most %d", ErrTooManyLayers, maxLayers)
	}
	return b.addLayerLocked(), nil
}

func (b *Board) addLayerLocked() models.Layer {
	b.nextLayerId++
	l := &layer{
		Layer: models.Layer{
			Id:      strconv.Itoa(b.nextLayerId),
			Name:    fmt.Sprintf("Layer %d", len(b.layers)+1),
			Visible: true,
			Locked:  false,
		},
	}
	if b.mounted() {
		l.surface = b.newSurface()
	}
	b.layers = append(b.layers, l)
	b.selected = l.Id
	return l.Layer
}

func (b *Board) SelectLayer(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findLayer(id) == nil {
		return ErrLayerNotFound
	}
	b.selected = id
	return nil
}

func (b *Board) ToggleVisibility(id string) (models.Layer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l := b.findLayer(id)
	if l == nil {
		return models.Layer{}, ErrLayerNotFound
	}
	l.Visible = !l.Visible
	return l.Layer, nil
}

func (b *Board) ToggleLock(id string) (models.Layer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l := b.findLayer(id)
	if l == nil {
		return models.Layer{}, ErrLayerNotFound
	}
	l.Locked = !l.Locked
	return l.Layer, nil
}

func (b *Board) findLayer(id string) *layer {
	for _, l := range b.layers {
		if l.Id == id {
			return l
		}
	}
	return nil
}

// drawableLayer is the selected layer if strokes may land on it.
func (b *Board) drawableLayer() *layer {
	l := b.findLayer(b.selected)
	if l == nil || l.surface == nil || !l.Visible || l.Locked {
		return nil
	}
	return l
}
