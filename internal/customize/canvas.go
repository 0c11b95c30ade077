package customize

import (
	"fmt"
	"strings"

	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
)

const (
	// ScaleMin and ScaleMax bound the artwork multiplier.
	ScaleMin = 0.5
	ScaleMax = 3.0
	// ScaleStep is the zoom in/out increment.
	ScaleStep = 0.1

	// OverlayNaturalSize is the unscaled display box of the artwork overlay,
	// in canvas pixels.
	OverlayNaturalSize = 128.0

	// DefaultScale and the default centroid are the reset state.
	DefaultScale     = 1.0
	DefaultPositionX = 35.0
	DefaultPositionY = 30.0
)

// Position is a point in percent-of-canvas units (0–100). Percent is the
// canonical space; pixels exist only at the drag boundary, which keeps a
// customization portable between the editor, cart thumbnails, and orders.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point is a raw pointer coordinate in canvas pixels.
type Point struct {
	X float64
	Y float64
}

// Customization is the serializable record attached to a cart item. Exactly
// one of ImageDataURL (pre-upload) or ImageURL (server-hosted) is set. Once
// attached to a cart item it is immutable.
type Customization struct {
	ImageDataURL string   `json:"imageDataUrl,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Position     Position `json:"position"`
	Scale        float64  `json:"scale"`
}

// Validate checks the record's invariants before it is handed to the cart.
func (c Customization) Validate() error {
	if strings.TrimSpace(c.ImageDataURL) == "" && strings.TrimSpace(c.ImageURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customization requires an image")
	}
	if c.Scale < ScaleMin || c.Scale > ScaleMax {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("scale %.2f outside [%.1f, %.1f]", c.Scale, ScaleMin, ScaleMax))
	}
	if c.Position.X < 0 || c.Position.X > 100 || c.Position.Y < 0 || c.Position.Y > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "position must be in percent units 0-100")
	}
	return nil
}

// Canvas is the editing surface state for one customization session.
type Canvas struct {
	width  float64
	height float64

	position Position
	scale    float64

	imageDataURL string
	imageURL     string

	drag *dragState
}

type dragState struct {
	// offset between the pointer and the overlay's top-left at press time,
	// in pixels
	offsetX float64
	offsetY float64
}

// NewCanvas builds an editing canvas for a container of the given pixel size.
func NewCanvas(width, height float64) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canvas dimensions must be positive")
	}
	return &Canvas{
		width:    width,
		height:   height,
		position: Position{X: DefaultPositionX, Y: DefaultPositionY},
		scale:    DefaultScale,
	}, nil
}

// SetImage installs uploaded artwork as an inline data URL.
func (c *Canvas) SetImage(dataURL string) error {
	if !strings.HasPrefix(dataURL, "data:") {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork must be a data url")
	}
	c.imageDataURL = dataURL
	c.imageURL = ""
	return nil
}

// SetRemoteImage installs server-hosted artwork by URL.
func (c *Canvas) SetRemoteImage(url string) error {
	if strings.TrimSpace(url) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork url is required")
	}
	c.imageURL = url
	c.imageDataURL = ""
	return nil
}

func (c *Canvas) HasImage() bool {
	return c.imageDataURL != "" || c.imageURL != ""
}

func (c *Canvas) Position() Position { return c.position }
func (c *Canvas) Scale() float64     { return c.scale }

// SetScale clamps into [ScaleMin, ScaleMax]; any input delta lands in bounds.
func (c *Canvas) SetScale(scale float64) {
	c.scale = clamp(scale, ScaleMin, ScaleMax)
	c.position = c.clampPosition(c.position)
}

// StepScale nudges the scale by n steps (negative zooms out).
func (c *Canvas) StepScale(steps int) {
	c.SetScale(c.scale + float64(steps)*ScaleStep)
}

// BeginDrag starts a drag at the given pointer position. Dragging without an
// image is rejected.
func (c *Canvas) BeginDrag(pointer Point) error {
	if !c.HasImage() {
		return pkgerrors.New(pkgerrors.CodeValidation, "no artwork to drag")
	}
	topLeft := c.positionPixels()
	c.drag = &dragState{
		offsetX: pointer.X - topLeft.X,
		offsetY: pointer.Y - topLeft.Y,
	}
	return nil
}

// Drag moves the overlay while a drag is active; moves without an active drag
// are ignored. The new top-left is pointer minus the press offset, clamped so
// the scaled overlay box stays fully inside the canvas.
func (c *Canvas) Drag(pointer Point) {
	if c.drag == nil {
		return
	}
	next := Point{
		X: pointer.X - c.drag.offsetX,
		Y: pointer.Y - c.drag.offsetY,
	}
	c.position = c.clampPosition(c.pixelsToPercent(next))
}

// EndDrag finishes the active drag, if any.
func (c *Canvas) EndDrag() {
	c.drag = nil
}

// Dragging reports whether a drag is in flight.
func (c *Canvas) Dragging() bool {
	return c.drag != nil
}

// Resize updates the container's pixel size, re-clamping the overlay.
func (c *Canvas) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "canvas dimensions must be positive")
	}
	c.width = width
	c.height = height
	c.position = c.clampPosition(c.position)
	return nil
}

// Reset restores the default centroid and scale and clears the artwork.
// Calling it twice is the same as calling it once.
func (c *Canvas) Reset() {
	c.position = Position{X: DefaultPositionX, Y: DefaultPositionY}
	c.scale = DefaultScale
	c.imageDataURL = ""
	c.imageURL = ""
	c.drag = nil
}

// ApplyCustomization restores a serialized record into the editor, re-clamping
// against the current canvas size.
func (c *Canvas) ApplyCustomization(cust Customization) error {
	if err := cust.Validate(); err != nil {
		return err
	}
	if cust.ImageDataURL != "" {
		if err := c.SetImage(cust.ImageDataURL); err != nil {
			return err
		}
	} else {
		if err := c.SetRemoteImage(cust.ImageURL); err != nil {
			return err
		}
	}
	c.SetScale(cust.Scale)
	c.position = c.clampPosition(cust.Position)
	return nil
}

// Customization serializes the current state for a cart line item.
func (c *Canvas) Customization() (Customization, error) {
	if !c.HasImage() {
		return Customization{}, pkgerrors.New(pkgerrors.CodeValidation, "customization requires an image")
	}
	result := Customization{
		ImageDataURL: c.imageDataURL,
		ImageURL:     c.imageURL,
		Position:     c.position,
		Scale:        c.scale,
	}
	if err := result.Validate(); err != nil {
		return Customization{}, err
	}
	return result, nil
}

// WithinPrintArea reports whether the overlay box currently sits inside the
// given print area. Advisory only: drag and scale are never hard-limited to
// the area, the UI just renders a warning state.
func (c *Canvas) WithinPrintArea(area PrintArea) bool {
	overlayW := c.overlayWidthPercent()
	overlayH := c.overlayHeightPercent()
	return c.position.X >= area.Left &&
		c.position.Y >= area.Top &&
		c.position.X+overlayW <= area.Left+area.Width &&
		c.position.Y+overlayH <= area.Top+area.Height
}

// overlayPixelSize is the scaled display box edge in pixels.
func (c *Canvas) overlayPixelSize() float64 {
	return OverlayNaturalSize * c.scale
}

func (c *Canvas) overlayWidthPercent() float64 {
	return c.overlayPixelSize() / c.width * 100
}

func (c *Canvas) overlayHeightPercent() float64 {
	return c.overlayPixelSize() / c.height * 100
}

func (c *Canvas) positionPixels() Point {
	return Point{
		X: c.position.X / 100 * c.width,
		Y: c.position.Y / 100 * c.height,
	}
}

func (c *Canvas) pixelsToPercent(p Point) Position {
	return Position{
		X: p.X / c.width * 100,
		Y: p.Y / c.height * 100,
	}
}

// clampPosition keeps the scaled overlay box inside [0,width]x[0,height].
func (c *Canvas) clampPosition(pos Position) Position {
	size := c.overlayPixelSize()
	maxX := c.width - size
	maxY := c.height - size
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	px := clamp(pos.X/100*c.width, 0, maxX)
	py := clamp(pos.Y/100*c.height, 0, maxY)
	return c.pixelsToPercent(Point{X: px, Y: py})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
