package stubapi

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
)

const (
	captchaWidth  = 160
	captchaHeight = 60
	captchaChars  = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	captchaLength = 6
)

func randomAnswer() string {
	b := make([]byte, captchaLength)
	for i := range b {
		b[i] = captchaChars[rand.Intn(len(captchaChars))]
	}

	return string(b)
}

// renderCaptcha draws a noisy puzzle image and returns it base64-encoded, the
// shape the captcha endpoint serves. The answer is only used to seed the
// glyph positions; tests read the expected answer from the server directly.
func renderCaptcha(answer string) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, captchaWidth, captchaHeight))

	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}

	for x := 0; x < captchaWidth; x++ {
		for y := 0; y < captchaHeight; y++ {
			img.Set(x, y, white)
		}
	}

	// Noise dots
	for i := 0; i < 50; i++ {
		img.Set(rand.Intn(captchaWidth), rand.Intn(captchaHeight), black)
	}

	// Strike-through lines
	for i := 0; i < 3; i++ {
		drawLine(img, rand.Intn(captchaWidth), rand.Intn(captchaHeight),
			rand.Intn(captchaWidth), rand.Intn(captchaHeight), black)
	}

	// Crude glyph marks, one cluster per character
	for i, ch := range answer {
		x := i*captchaWidth/len(answer) + 10
		y := captchaHeight/2 + int(ch)%10 - 5
		for dx := 0; dx < 6; dx++ {
			for dy := 0; dy < 8; dy++ {
				if (dx+dy+int(ch))%3 == 0 {
					img.Set(x+dx, y+dy, black)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode captcha: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		img.Set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
