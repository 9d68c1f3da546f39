package imagegen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/marketforge/marketforge/internal/util"
	"github.com/marketforge/marketforge/pkg/models"
)

// CategoryFunnel selects the funnel-chart layout of the local renderer
const CategoryFunnel = "funnel"

var (
	rendererBackground = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	rendererAccent     = color.RGBA{R: 0x4f, G: 0x46, B: 0xe5, A: 0xff}
	rendererTitle      = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	rendererSubtle     = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	rendererWhite      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	funnelPalette = []color.RGBA{
		{R: 0x31, G: 0x2e, B: 0x81, A: 0xff},
		{R: 0x3b, G: 0x38, B: 0xa0, A: 0xff},
		{R: 0x4f, G: 0x46, B: 0xe5, A: 0xff},
		{R: 0x6d, G: 0x66, B: 0xf0, A: 0xff},
		{R: 0x8b, G: 0x85, B: 0xf7, A: 0xff},
	}
)

// Renderer is the deterministic local fallback: it synthesizes a canonical
// placeholder artifact purely from the request's textual fields, with no
// network dependency. It is the tier beneath every provider and must not
// fail outside environment-level faults.
type Renderer struct{}

// NewRenderer creates the local fallback renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces a canonical-size base64 PNG for the request
func (r *Renderer) Render(req models.GenerationRequest) (string, error) {
	size := models.CanonicalImageSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	if req.Category == CategoryFunnel {
		r.renderFunnel(img, req)
	} else {
		r.renderPortrait(img, req)
	}

	b64, err := encodePNGBase64(img)
	if err != nil {
		return "", fmt.Errorf("local fallback render failed: %w", err)
	}
	return b64, nil
}

// renderPortrait draws the avatar placeholder: an accent disc with the
// subject's initials over name and role captions
func (r *Renderer) renderPortrait(img *image.RGBA, req models.GenerationRequest) {
	fill(img, img.Bounds(), rendererBackground)

	const (
		discCX = models.CanonicalImageSize / 2
		discCY = 420
		discR  = 220
	)
	fillDisc(img, discCX, discCY, discR, rendererAccent)

	subject := req.Subject
	if subject == "" {
		subject = "Avatar"
	}

	drawScaledText(img, util.Initials(subject), discCX, discCY, 14, rendererWhite)
	drawScaledText(img, util.TruncateString(subject, 28), discCX, 760, 6, rendererTitle)
	if req.Role != "" {
		drawScaledText(img, util.TruncateString(req.Role, 36), discCX, 840, 4, rendererSubtle)
	}
}

// renderFunnel draws a top-down funnel of narrowing stage bars; stage labels
// come from the request traits
func (r *Renderer) renderFunnel(img *image.RGBA, req models.GenerationRequest) {
	fill(img, img.Bounds(), rendererWhite)

	title := req.Subject
	if title == "" {
		title = "Sales Funnel"
	}
	drawScaledText(img, util.TruncateString(title, 30), models.CanonicalImageSize/2, 80, 5, rendererTitle)

	stages := req.Traits
	if len(stages) == 0 {
		stages = []string{"Visitors", "Leads", "Qualified", "Opportunities", "Customers"}
	}

	const (
		top       = 180
		barHeight = 130
		gap       = 30
	)
	maxWidth := models.CanonicalImageSize - 160

	for i, stage := range stages {
		width := maxWidth - i*(maxWidth/(len(stages)+1))
		x0 := (models.CanonicalImageSize - width) / 2
		y0 := top + i*(barHeight+gap)
		y1 := y0 + barHeight
		if y1 > models.CanonicalImageSize-40 {
			break
		}

		fill(img, image.Rect(x0, y0, x0+width, y1), funnelPalette[i%len(funnelPalette)])
		drawScaledText(img, util.TruncateString(stage, 24), models.CanonicalImageSize/2, y0+barHeight/2, 4, rendererWhite)
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func fillDisc(img *image.RGBA, cx, cy, radius int, c color.Color) {
	r2 := radius * radius
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				img.Set(x, y, c)
			}
		}
	}
}

// drawScaledText renders text with the bitmap face, then scales it up with
// nearest-neighbour so the glyphs stay crisp, centered on (cx, cy)
func drawScaledText(dst *image.RGBA, text string, cx, cy, scale int, c color.Color) {
	if text == "" {
		return
	}

	face := basicfont.Face7x13
	w := face.Advance * len(text)
	h := face.Height

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	drawer := font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(text)

	target := image.Rect(cx-w*scale/2, cy-h*scale/2, cx+w*scale/2, cy+h*scale/2)
	xdraw.NearestNeighbor.Scale(dst, target, src, src.Bounds(), xdraw.Over, nil)
}
