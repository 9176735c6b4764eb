package render

import (
	"time"

	"transitboard/internal/display"
)

// The realtime indicator: a 6x6 glyph of three arc segments that light up
// in sequence. Cell values are segment numbers; zero cells are transparent.
var realtimeIcon = [6][6]uint8{
	{0, 0, 0, 3, 3, 3},
	{0, 0, 3, 0, 0, 0},
	{0, 3, 0, 0, 2, 2},
	{3, 0, 0, 2, 0, 0},
	{3, 0, 2, 0, 0, 1},
	{3, 0, 2, 0, 1, 1},
}

const (
	iconFrames        = 6
	iconIdleDuration  = 3000 * time.Millisecond
	iconFrameDuration = 200 * time.Millisecond
	iconCycleDuration = iconIdleDuration + (iconFrames-1)*iconFrameDuration
)

var (
	iconLitColor   = display.Color(0x20FF00)
	iconUnlitColor = display.Color(0x00A700)
)

// iconFrame maps elapsed device time to the current animation frame: a long
// idle hold on frame 0, then the lit-segment sweep.
func iconFrame(elapsed time.Duration) int {
	cycleTime := elapsed % iconCycleDuration
	if cycleTime < iconIdleDuration {
		return 0
	}
	return 1 + int((cycleTime-iconIdleDuration)/iconFrameDuration)
}

func segmentLit(segment uint8, frame int) bool {
	switch segment {
	case 1:
		return frame >= 1 && frame <= 3
	case 2:
		return frame >= 2 && frame <= 4
	case 3:
		return frame >= 3 && frame <= 5
	default:
		return false
	}
}

// drawRealtimeIcon draws the indicator anchored at its bottom-right corner.
func drawRealtimeIcon(s display.Surface, bottomRightX, bottomRightY int, elapsed time.Duration) {
	frame := iconFrame(elapsed)

	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			segment := realtimeIcon[i][j]
			if segment == 0 {
				continue
			}
			color := iconUnlitColor
			if segmentLit(segment, frame) {
				color = iconLitColor
			}
			s.DrawPixel(bottomRightX-(5-j), bottomRightY-(5-i), color)
		}
	}
}
