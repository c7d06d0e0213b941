// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     tray
// Description: System tray integration using fyne.io/systray
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"fyne.io/systray"

	"github.com/echotype/echotype/internal/listen"
)

// Callbacks holds callback functions for tray events
type Callbacks struct {
	OnPauseResume func()
	OnQuit        func()
}

// App represents the system tray application
type App struct {
	onPauseResume func()
	onQuit        func()

	menuStatus      *systray.MenuItem
	menuUtterances  *systray.MenuItem
	menuPauseResume *systray.MenuItem
	menuQuit        *systray.MenuItem

	currentState listen.State
}

// New creates a new system tray application
func New(callbacks Callbacks) *App {
	return &App{
		onPauseResume: callbacks.OnPauseResume,
		onQuit:        callbacks.OnQuit,
		currentState:  listen.StateListening,
	}
}

// Run starts the system tray application (blocking)
func (a *App) Run() {
	systray.Run(a.onReady, a.onExit)
}

// onReady is called when the system tray is ready
func (a *App) onReady() {
	systray.SetIcon(iconBytes(listen.StateListening))
	systray.SetTitle("")
	systray.SetTooltip("EchoType")

	a.menuStatus = systray.AddMenuItem("Status: listening", "Current state")
	a.menuStatus.Disable()

	a.menuUtterances = systray.AddMenuItem("Utterances: 0", "Transcribed utterances")
	a.menuUtterances.Disable()

	systray.AddSeparator()

	a.menuPauseResume = systray.AddMenuItem("Pause", "Pause or resume listening")

	systray.AddSeparator()

	a.menuQuit = systray.AddMenuItem("Quit", "Quit EchoType")

	go a.handleClicks()
}

// handleClicks handles menu item clicks
func (a *App) handleClicks() {
	for {
		select {
		case <-a.menuPauseResume.ClickedCh:
			if a.onPauseResume != nil {
				a.onPauseResume()
			}
		case <-a.menuQuit.ClickedCh:
			if a.onQuit != nil {
				a.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

// onExit is called when the system tray exits
func (a *App) onExit() {}

// SetState updates the icon and status line for a controller state
func (a *App) SetState(state listen.State) {
	a.currentState = state
	systray.SetIcon(iconBytes(state))
	if a.menuStatus != nil {
		a.menuStatus.SetTitle("Status: " + state.String())
	}
	if a.menuPauseResume != nil {
		if state == listen.StatePaused {
			a.menuPauseResume.SetTitle("Resume")
		} else {
			a.menuPauseResume.SetTitle("Pause")
		}
	}
}

// SetUtteranceCount updates the utterance counter display
func (a *App) SetUtteranceCount(n uint64) {
	if a.menuUtterances != nil {
		a.menuUtterances.SetTitle("Utterances: " + strconv.FormatUint(n, 10))
	}
}

// Quit quits the system tray
func (a *App) Quit() {
	systray.Quit()
}

// iconBytes creates a PNG icon with "ET" text colored by state
func iconBytes(state listen.State) []byte {
	width := 44
	height := 22
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	var c color.RGBA
	switch state {
	case listen.StateListening:
		c = color.RGBA{255, 255, 255, 255} // White
	case listen.StateDetecting:
		c = color.RGBA{255, 204, 0, 255} // Yellow
	case listen.StateRecording:
		c = color.RGBA{255, 59, 48, 255} // Red
	case listen.StateProcessing:
		c = color.RGBA{0, 122, 255, 255} // Blue
	case listen.StatePaused:
		c = color.RGBA{128, 128, 128, 255} // Gray
	default:
		c = color.RGBA{128, 128, 128, 255}
	}

	drawText(img, "ET", 6, 4, c)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return minimalPNG()
	}
	return buf.Bytes()
}

// Bitmap font data for characters (5x7 pixels each)
var bitmapFont = map[rune][]byte{
	'E': {
		0b11111,
		0b10000,
		0b10000,
		0b11110,
		0b10000,
		0b10000,
		0b11111,
	},
	'T': {
		0b11111,
		0b00100,
		0b00100,
		0b00100,
		0b00100,
		0b00100,
		0b00100,
	},
}

// drawText draws text on the image using the bitmap font
func drawText(img *image.RGBA, text string, startX, startY int, c color.RGBA) {
	x := startX
	charWidth := 6 // 5 pixels + 1 spacing
	charHeight := 7
	scale := 2

	for _, ch := range text {
		if pattern, ok := bitmapFont[ch]; ok {
			for row := 0; row < charHeight; row++ {
				for col := 0; col < 5; col++ {
					if pattern[row]&(1<<(4-col)) != 0 {
						for sy := 0; sy < scale; sy++ {
							for sx := 0; sx < scale; sx++ {
								px := x + col*scale + sx
								py := startY + row*scale + sy
								if px >= 0 && px < img.Bounds().Max.X && py >= 0 && py < img.Bounds().Max.Y {
									img.SetRGBA(px, py, c)
								}
							}
						}
					}
				}
			}
		}
		x += charWidth * scale
	}
}

// minimalPNG returns a minimal valid 1x1 PNG as fallback
func minimalPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
