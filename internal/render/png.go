// Package render draws a canvas folder as a PNG image or describes it as
// Markdown for the terminal.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	_ "golang.org/x/image/webp"

	"slate-cli/internal/model"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("render: nothing to export")

// Images gives access to image bytes by handle.
type Images interface {
	LoadedImageData(handle string) ([]byte, bool)
}

type PNGOptions struct {
	// Scale multiplies canvas units into pixels. Zero means 1.
	Scale   float64
	Padding float64
}

const (
	fontSize      = 12.0
	titleFontSize = 16.0
	arrowHead     = 8.0
	arrowSamples  = 64
	cornerRadius  = 6.0
)

var (
	inkColor       = color.RGBA{0x21, 0x21, 0x21, 0xff}
	mutedColor     = color.RGBA{0x9e, 0x9e, 0x9e, 0xff}
	containerFill  = color.RGBA{0xf5, 0xf5, 0xf5, 0xff}
	placeholderBox = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
)

type painter struct {
	dc     *gg.Context
	images Images
	body   font.Face
	title  font.Face
	scale  float64
	origin model.Vec2
}

// PNG draws the contents of folder and writes them as a PNG image.
func PNG(w io.Writer, folder *model.Object, images Images, opts PNGOptions) error {
	if folder == nil || len(folder.Children()) == 0 {
		return ErrEmpty
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	pad := opts.Padding
	if pad <= 0 {
		pad = 30
	}
	b := contentBounds(folder.Children())
	width := int(math.Ceil((b.Size.W + 2*pad) * scale))
	height := int(math.Ceil((b.Size.H + 2*pad) * scale))

	body, err := loadFace(gomono.TTF, fontSize*scale)
	if err != nil {
		return err
	}
	title, err := loadFace(gobold.TTF, titleFontSize*scale)
	if err != nil {
		return err
	}

	p := &painter{
		dc:     gg.NewContext(width, height),
		images: images,
		body:   body,
		title:  title,
		scale:  scale,
		origin: model.Vec2{X: b.Position.X - pad, Y: b.Position.Y - pad},
	}
	p.dc.SetColor(color.White)
	p.dc.Clear()

	// Boxes first, arrows on top.
	for _, o := range folder.Children() {
		if !o.IsArrow() {
			p.object(o, model.Vec2{})
		}
	}
	for _, o := range folder.Children() {
		if o.IsArrow() {
			p.arrow(o)
		}
	}
	return p.dc.EncodePNG(w)
}

func loadFace(ttf []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

func contentBounds(objs []*model.Object) model.Box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, o := range objs {
		end := o.Box().Max()
		minX, minY = math.Min(minX, o.Position.X), math.Min(minY, o.Position.Y)
		maxX, maxY = math.Max(maxX, end.X), math.Max(maxY, end.Y)
	}
	return model.NewBox(minX, minY, maxX-minX, maxY-minY)
}

// px converts a canvas point to image pixels.
func (p *painter) px(v model.Vec2) (float64, float64) {
	return (v.X - p.origin.X) * p.scale, (v.Y - p.origin.Y) * p.scale
}

func (p *painter) object(o *model.Object, offset model.Vec2) {
	pos := o.Position.Add(offset)
	x, y := p.px(pos)
	w, h := o.Size.W*p.scale, o.Size.H*p.scale

	switch c := o.Content.(type) {
	case *model.ContainerContent:
		p.dc.DrawRoundedRectangle(x, y, w, h, cornerRadius*p.scale)
		p.dc.SetColor(containerFill)
		p.dc.FillPreserve()
		p.dc.SetColor(mutedColor)
		p.dc.SetLineWidth(1)
		p.dc.Stroke()
		for _, child := range c.Objects {
			p.object(child, pos)
		}
	case *model.TitleContent:
		p.text(model.ContentText(c), x, y, w, p.title)
	case *model.TextContent:
		p.text(model.ContentText(c), x, y, w, p.body)
	case *model.FolderContent:
		side := math.Min(w, h)
		p.dc.DrawRoundedRectangle(x, y, side, side*0.75, cornerRadius*p.scale)
		p.dc.SetColor(parseColor(c.Color))
		p.dc.FillPreserve()
		p.dc.SetColor(inkColor)
		p.dc.SetLineWidth(1)
		p.dc.Stroke()
		p.dc.SetFontFace(p.body)
		p.dc.DrawStringWrapped(strings.TrimSpace(model.StripHTML(c.Name)), x+side/2, y+side*0.8, 0.5, 0, w, 1.2, gg.AlignCenter)
	case *model.ImageContent:
		p.image(c.Handle, x, y, w, h)
	}
}

func (p *painter) text(s string, x, y, w float64, face font.Face) {
	p.dc.SetFontFace(face)
	p.dc.SetColor(inkColor)
	p.dc.DrawStringWrapped(strings.TrimSpace(s), x, y, 0, 0, w, 1.3, gg.AlignLeft)
}

func (p *painter) image(handle string, x, y, w, h float64) {
	var img image.Image
	if p.images != nil {
		if data, ok := p.images.LoadedImageData(handle); ok {
			img, _, _ = image.Decode(bytes.NewReader(data))
		}
	}
	if img == nil {
		p.dc.DrawRectangle(x, y, w, h)
		p.dc.SetColor(placeholderBox)
		p.dc.Fill()
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(w)), max(1, int(h))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	p.dc.DrawImage(dst, int(x), int(y))
}

func (p *painter) arrow(o *model.Object) {
	c, ok := o.Content.(*model.ArrowContent)
	if !ok || c.Curve == nil {
		return
	}
	pts := model.CurvePoints(*c.Curve, arrowSamples)
	p.dc.SetColor(inkColor)
	p.dc.SetLineWidth(2 * p.scale)
	for i, cp := range pts {
		x, y := p.px(cp.Point.Add(o.Position))
		if i == 0 {
			p.dc.MoveTo(x, y)
		} else {
			p.dc.LineTo(x, y)
		}
	}
	p.dc.Stroke()

	if c.TipLeft {
		first := pts[0]
		p.head(first.Point.Add(o.Position), first.Angle+math.Pi)
	}
	if c.TipRight {
		last := pts[len(pts)-1]
		p.head(last.Point.Add(o.Position), last.Angle)
	}
}

// head draws a filled arrowhead pointing along angle with its tip at at.
func (p *painter) head(at model.Vec2, angle float64) {
	x, y := p.px(at)
	size := arrowHead * p.scale
	p.dc.MoveTo(x, y)
	p.dc.LineTo(x-size*math.Cos(angle-0.5), y-size*math.Sin(angle-0.5))
	p.dc.LineTo(x-size*math.Cos(angle+0.5), y-size*math.Sin(angle+0.5))
	p.dc.ClosePath()
	p.dc.Fill()
}

// parseColor accepts #rgb, #rrggbb and SVG color names.
func parseColor(s string) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	var r, g, b uint8
	if len(hex) == 6 {
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{r, g, b, 0xff}
		}
	}
	return placeholderBox
}

// ImageSize reports the pixel dimensions of encoded image data.
func ImageSize(data []byte) (model.Size2, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Size2{}, fmt.Errorf("render: decode image: %w", err)
	}
	return model.Size2{W: float64(cfg.Width), H: float64(cfg.Height)}, nil
}
