package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
)

const (
	gifFile    = "ballsim.gif"
	charW      = 8
	charH      = 16
	gifDelay   = 3
	maxGIFSize = 900
)

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		m.status = ""
		return
	}

	m.recording = false
	if err := saveGIF(gifFile, m.frames); err != nil {
		m.status = fmt.Sprintf("gif: %v", err)
	} else {
		m.status = fmt.Sprintf("wrote %d frames to %s", len(m.frames), gifFile)
	}
	m.frames = nil
}

func (m *Model) captureFrame() {
	if len(m.frames) >= maxGIFSize {
		return
	}
	frame := make([][]rune, len(m.canvas.Grid))
	for i, row := range m.canvas.Grid {
		frame[i] = append([]rune(nil), row...)
	}
	m.frames = append(m.frames, frame)
}

// renderFrame rasterizes a braille grid, each dot becoming a block of
// charW/2 x charH/4 pixels.
func renderFrame(grid [][]rune, fg color.Color) *image.Paletted {
	rows := len(grid)
	cols := 0
	if rows > 0 {
		cols = len(grid[0])
	}
	img := image.NewPaletted(image.Rect(0, 0, cols*charW, rows*charH), color.Palette{color.Black, fg})

	dotW, dotH := charW/2, charH/4
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r := grid[row][col]
			if r <= brailleBase {
				continue
			}
			pattern := int(r - brailleBase)
			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, 1)
						}
					}
				}
			}
		}
	}
	return img
}

func encodeGIF(w io.Writer, frames [][][]rune) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	fg := color.RGBA{0x00, 0xff, 0xff, 0xff}
	for _, f := range frames {
		anim.Image = append(anim.Image, renderFrame(f, fg))
		anim.Delay = append(anim.Delay, gifDelay)
	}
	return gif.EncodeAll(w, &anim)
}

func saveGIF(path string, frames [][][]rune) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeGIF(f, frames)
}
