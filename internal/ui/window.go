package ui

import (
	"image"
	"image/color"
	"log"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/plot"
)

// App drives the histogram window.
type App struct {
	Window    *app.Window
	Theme     *material.Theme
	Histogram plot.Histogram

	icon *widget.Icon
	ops  op.Ops
}

// New wires the window, theme and histogram together.
func New(window *app.Window, h plot.Histogram) *App {
	return &App{
		Window:    window,
		Theme:     newTheme(),
		Histogram: h,
		icon:      makeIcon(icons.EditorInsertChart, "chart"),
	}
}

func newTheme() *material.Theme {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	th.Palette = material.Palette{
		Bg:         color.NRGBA{R: 24, G: 27, B: 34, A: 255},
		Fg:         color.NRGBA{R: 230, G: 230, B: 235, A: 255},
		ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
		ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
	return th
}

func makeIcon(data []byte, name string) *widget.Icon {
	icon, err := widget.NewIcon(data)
	if err != nil {
		log.Printf("ui: failed to load %s icon: %v", name, err)
		return nil
	}
	return icon
}

// Run processes Gio events until the window is closed.
func (a *App) Run() error {
	for {
		e := a.Window.Event()
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	paint.Fill(gtx.Ops, a.Theme.Palette.Bg)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(a.layoutTopBar),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(16)).Layout(gtx, a.layoutChart)
		}),
	)
}

func (a *App) layoutTopBar(gtx layout.Context) layout.Dimensions {
	return layout.Inset{
		Top: unit.Dp(12), Bottom: unit.Dp(4), Left: unit.Dp(16), Right: unit.Dp(16),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if a.icon == nil {
					return layout.Dimensions{}
				}
				size := gtx.Dp(unit.Dp(24))
				gtx.Constraints = layout.Exact(image.Pt(size, size))
				return a.icon.Layout(gtx, a.Theme.Palette.ContrastBg)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(material.H6(a.Theme, "Multiplexer Results").Layout),
		)
	})
}

// layoutChart scales the histogram to fit and centers it.
func (a *App) layoutChart(gtx layout.Context) layout.Dimensions {
	h := a.Histogram
	if h.Size.X <= 0 || h.Size.Y <= 0 {
		return layout.Dimensions{Size: gtx.Constraints.Max}
	}
	avail := gtx.Constraints.Max
	scale := min(float32(avail.X)/h.Size.X, float32(avail.Y)/h.Size.Y)
	if scale <= 0 {
		return layout.Dimensions{Size: avail}
	}
	offset := f32.Pt((float32(avail.X)-h.Size.X*scale)/2, (float32(avail.Y)-h.Size.Y*scale)/2)

	tr := f32.Affine2D{}.Scale(f32.Point{}, f32.Pt(scale, scale)).Offset(offset)
	stack := op.Affine(tr).Push(gtx.Ops)
	renderHistogram(gtx, a.Theme, h)
	stack.Pop()

	return layout.Dimensions{Size: avail}
}

// renderHistogram paints h in its own coordinate space.
func renderHistogram(gtx layout.Context, th *material.Theme, h plot.Histogram) layout.Dimensions {
	for _, rect := range h.Rectangles {
		paint.FillShape(gtx.Ops, rect.Fill, clip.Rect{
			Min: image.Pt(int(rect.Position.X), int(rect.Position.Y)),
			Max: image.Pt(int(rect.Position.X+rect.Size.X), int(rect.Position.Y+rect.Size.Y)),
		}.Op())
	}

	for _, label := range h.Labels {
		lbl := material.Label(th, unit.Sp(label.Size), label.Text)
		lbl.Color = label.Color
		lbl.MaxLines = 1

		// Measure first so the text can be anchored on its position.
		macro := op.Record(gtx.Ops)
		lgtx := gtx
		lgtx.Constraints.Min = image.Point{}
		dims := lbl.Layout(lgtx)
		_ = macro.Stop()

		offsetX := int(label.Position.X)
		switch label.Align {
		case plot.AlignCenter:
			offsetX -= dims.Size.X / 2
		case plot.AlignEnd:
			offsetX -= dims.Size.X
		}
		offsetY := int(label.Position.Y) - dims.Size.Y/2

		stack := op.Offset(image.Pt(offsetX, offsetY)).Push(gtx.Ops)
		lbl.Layout(lgtx)
		stack.Pop()
	}

	return layout.Dimensions{
		Size: image.Pt(int(h.Size.X), int(h.Size.Y)),
	}
}
