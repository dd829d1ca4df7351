// Package ui shows execution histograms in a Gio window.
package ui

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/plot"
)

// ShowHistogram opens a window painting h and blocks until it is closed.
// The process exits when the window closes.
func ShowHistogram(h plot.Histogram) error {
	go func() {
		w := new(app.Window)
		title := "OpenTraceMux"
		if h.Title != "" {
			title += " - " + h.Title
		}
		w.Option(app.Title(title), app.Size(unit.Dp(h.Size.X+64), unit.Dp(h.Size.Y+120)))
		ui := New(w, h)
		if err := ui.Run(); err != nil {
			log.Printf("ui: %v", err)
		}
		os.Exit(0)
	}()

	app.Main()
	return nil
}
