// sonify-ui is the graphical control surface for the tone engine: sliders
// for the ten simulated pressure sensors and the IMU axes, a genre picker
// and a master volume fader.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	sonify "github.com/fsrlab/sonify-go"
	"github.com/fsrlab/sonify-go/internal/genre"
)

const (
	windowW = 980
	windowH = 640

	fsrCount   = 10
	sliderW    = 28
	sliderH    = 220
	sliderGap  = 64
	sliderTopY = 70

	axisSliderW = 200
	axisSliderH = 16

	buttonW = 130
	buttonH = 28
)

var (
	bgColor     = color.RGBA{32, 32, 40, 255}
	trackColor  = color.RGBA{70, 70, 86, 255}
	fillColor   = color.RGBA{90, 160, 255, 255}
	activeColor = color.RGBA{0, 96, 192, 255}
	buttonColor = color.RGBA{64, 64, 80, 255}
)

type axisControl struct {
	label string
	value float64 // -1..1
}

type game struct {
	player *sonify.Player
	genres []genre.Info

	fsrValues [fsrCount]float64
	axes      [6]axisControl // ax ay az gx gy gz

	volume      float64
	draggingFSR int // -1 = none
	draggingAx  int // -1 = none
	dragVolume  bool

	status string
}

func newGame(pl *sonify.Player) *game {
	g := &game{
		player:      pl,
		genres:      pl.ListGenres(),
		volume:      1.0,
		draggingFSR: -1,
		draggingAx:  -1,
		status:      "Ready",
	}
	labels := []string{"Ax", "Ay", "Az", "Gx", "Gy", "Gz"}
	for i, l := range labels {
		g.axes[i].label = l
	}
	return g
}

func (g *game) Update() error {
	g.handleMouse()
	return nil
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	justPressed := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	if justPressed {
		for i := 0; i < fsrCount; i++ {
			if pointInRect(mx, my, g.fsrRect(i)) {
				g.draggingFSR = i
			}
		}
		for i := range g.axes {
			if pointInRect(mx, my, g.axisRect(i)) {
				g.draggingAx = i
			}
		}
		if pointInRect(mx, my, g.volumeRect()) {
			g.dragVolume = true
		}
		for i := range g.genres {
			if pointInRect(mx, my, g.genreRect(i)) {
				g.player.SetGenre(g.genres[i].Key)
				g.status = "Genre: " + g.genres[i].Name
			}
		}
		if pointInRect(mx, my, g.panicRect()) {
			g.player.AllNotesOff()
			g.status = "All notes off"
		}
	}

	if !pressed {
		g.draggingFSR = -1
		g.draggingAx = -1
		g.dragVolume = false
		return
	}

	if g.draggingFSR >= 0 {
		r := g.fsrRect(g.draggingFSR)
		v := 1.0 - float64(my-r.Min.Y)/float64(r.Dy())
		g.fsrValues[g.draggingFSR] = clamp01(v)
		g.player.SetFSR(g.draggingFSR, g.fsrValues[g.draggingFSR])
	}
	if g.draggingAx >= 0 {
		r := g.axisRect(g.draggingAx)
		v := float64(mx-r.Min.X)/float64(r.Dx())*2.0 - 1.0
		g.axes[g.draggingAx].value = clampUnit(v)
		g.pushIMU()
	}
	if g.dragVolume {
		r := g.volumeRect()
		v := float64(mx-r.Min.X) / float64(r.Dx()) * 2.0
		if v < 0 {
			v = 0
		}
		if v > 2 {
			v = 2
		}
		g.volume = v
		g.player.SetVolume(v)
	}
}

// pushIMU converts slider positions back to raw sensor units (g and
// degrees/sec) before handing them to the simulator.
func (g *game) pushIMU() {
	g.player.SetAccel(g.axes[0].value*2, g.axes[1].value*2, g.axes[2].value*2)
	g.player.SetGyro(g.axes[3].value*250, g.axes[4].value*250, g.axes[5].value*250)
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	ebitenutil.DebugPrintAt(screen, "FSR channels", 40, sliderTopY-26)
	for i := 0; i < fsrCount; i++ {
		r := g.fsrRect(i)
		drawRect(screen, r, trackColor)
		fillH := int(g.fsrValues[i] * float64(r.Dy()))
		fill := image.Rect(r.Min.X, r.Max.Y-fillH, r.Max.X, r.Max.Y)
		drawRect(screen, fill, fillColor)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d", i+1), r.Min.X+8, r.Max.Y+6)
	}

	ebitenutil.DebugPrintAt(screen, "IMU axes (accel g / gyro dps)", 40, sliderTopY+sliderH+50)
	for i := range g.axes {
		r := g.axisRect(i)
		drawRect(screen, r, trackColor)
		mid := r.Min.X + r.Dx()/2
		pos := mid + int(g.axes[i].value*float64(r.Dx())/2)
		if pos < mid {
			drawRect(screen, image.Rect(pos, r.Min.Y, mid, r.Max.Y), fillColor)
		} else {
			drawRect(screen, image.Rect(mid, r.Min.Y, pos, r.Max.Y), fillColor)
		}
		ebitenutil.DebugPrintAt(screen, g.axes[i].label, r.Min.X-26, r.Min.Y)
	}

	ebitenutil.DebugPrintAt(screen, "Genre", 700, sliderTopY-26)
	activeGenre := g.player.Engine().Genre()
	for i, info := range g.genres {
		r := g.genreRect(i)
		c := buttonColor
		if info.Key == activeGenre {
			c = activeColor
		}
		drawRect(screen, r, c)
		ebitenutil.DebugPrintAt(screen, info.Name, r.Min.X+8, r.Min.Y+6)
	}

	vr := g.volumeRect()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Volume %.2f", g.volume), vr.Min.X, vr.Min.Y-18)
	drawRect(screen, vr, trackColor)
	fillW := int(g.volume / 2.0 * float64(vr.Dx()))
	drawRect(screen, image.Rect(vr.Min.X, vr.Min.Y, vr.Min.X+fillW, vr.Max.Y), fillColor)

	pr := g.panicRect()
	drawRect(screen, pr, buttonColor)
	ebitenutil.DebugPrintAt(screen, "All notes off", pr.Min.X+8, pr.Min.Y+6)

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s | voices: %d", g.status, g.player.Engine().ActiveVoiceCount()), 40, windowH-28)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func (g *game) fsrRect(i int) image.Rectangle {
	x := 40 + i*sliderGap
	return image.Rect(x, sliderTopY, x+sliderW, sliderTopY+sliderH)
}

func (g *game) axisRect(i int) image.Rectangle {
	x := 70
	y := sliderTopY + sliderH + 76 + i*(axisSliderH+14)
	return image.Rect(x, y, x+axisSliderW, y+axisSliderH)
}

func (g *game) genreRect(i int) image.Rectangle {
	y := sliderTopY + i*(buttonH+10)
	return image.Rect(700, y, 700+buttonW, y+buttonH)
}

func (g *game) volumeRect() image.Rectangle {
	return image.Rect(700, 360, 700+buttonW+80, 360+axisSliderH)
}

func (g *game) panicRect() image.Rectangle {
	return image.Rect(700, 410, 700+buttonW, 410+buttonH)
}

func drawRect(dst *ebiten.Image, r image.Rectangle, c color.Color) {
	vector.DrawFilledRect(dst, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), c, false)
}

func pointInRect(x, y int, r image.Rectangle) bool {
	return image.Pt(x, y).In(r)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		genreKey   = flag.String("genre", "jazz", "startup genre preset")
		strategy   = flag.String("strategy", "tilt", "sensor mapping strategy: tilt|persensor")
	)
	flag.Parse()

	strat := sonify.StrategyTilt
	if *strategy == "persensor" {
		strat = sonify.StrategyPerSensor
	}
	pl, err := sonify.NewPlayer(*sampleRate,
		sonify.WithGenre(*genreKey),
		sonify.WithStrategy(strat),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Start(); err != nil {
		log.Printf("audio output unavailable (%v); UI runs silent", err)
	}
	defer pl.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("sonify - sensor tone generator")
	if err := ebiten.RunGame(newGame(pl)); err != nil {
		log.Fatal(err)
	}
}
