package strip

import "math"

// rgb is one chain position in 8-bit channel values, before color
// correction.
type rgb struct {
	r, g, b uint8
}

// ledDriver turns a full chain state into the byte frame a particular LED
// chipset expects on the SPI bus.
type ledDriver interface {
	frame(leds []rgb) []byte
}

// ws2801Driver frames for WS2801 chains: three raw bytes per LED, no
// start or end marker. The chip latches on clock idle.
type ws2801Driver struct {
	correction [3]float64
}

func newWS2801Driver(correction [3]float64) *ws2801Driver {
	return &ws2801Driver{correction: correction}
}

func (d *ws2801Driver) frame(leds []rgb) []byte {
	display := make([]byte, 3*len(leds))
	for idx, led := range leds {
		display[3*idx] = correct(led.r, d.correction[0])
		display[3*idx+1] = correct(led.g, d.correction[1])
		display[3*idx+2] = correct(led.b, d.correction[2])
	}
	return display
}

// apa102Driver frames for APA102/SK9822 chains: a 4-zero-byte start
// frame, one brightness/blue/green/red quad per LED, and enough 0xFF end
// bytes to clock the last LEDs through.
type apa102Driver struct {
	brightness byte
	correction [3]float64
}

func newAPA102Driver(brightness int, correction [3]float64) *apa102Driver {
	return &apa102Driver{brightness: byte(brightness) | 0xE0, correction: correction}
}

func (d *apa102Driver) frame(leds []rgb) []byte {
	display := make([]byte, 0, 4+4*len(leds)+len(leds)/16+1)

	// frame start: 4 zero bytes
	display = append(display, 0x00, 0x00, 0x00, 0x00)

	for _, led := range leds {
		display = append(display,
			d.brightness,
			correct(led.b, d.correction[2]),
			correct(led.g, d.correction[1]),
			correct(led.r, d.correction[0]))
	}

	// frame end: at least len(leds)/2 + 1 bits of 0xFF, counted in bytes
	frameEndLength := len(leds)/16 + 1
	for i := 0; i < frameEndLength; i++ {
		display = append(display, 0xFF)
	}
	return display
}

func correct(v uint8, factor float64) byte {
	return byte(math.Min(float64(v)*factor, 255))
}
