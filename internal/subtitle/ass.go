package subtitle

import (
	"fmt"
	"math"
	"strings"
)

const assHeader = `[Script Info]
Title: %s
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,48,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,1,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text`

// ASSDocument renders timed cues as an Advanced SubStation Alpha script,
// suitable for playback alongside the downloaded video.
func ASSDocument(title string, cues []Cue) string {
	var b strings.Builder
	fmt.Fprintf(&b, assHeader, title)
	for _, cue := range cues {
		text := strings.ReplaceAll(cue.Content, "\n", `\N`)
		fmt.Fprintf(&b, "\nDialogue: 0,%s,%s,Default,,0,0,0,,%s", assTime(cue.From), assTime(cue.To), text)
	}
	return b.String()
}

// assTime formats seconds as the H:MM:SS.CC timestamp ASS expects.
func assTime(seconds float64) string {
	h := int(seconds / 3600)
	m := int(math.Mod(seconds, 3600) / 60)
	s := math.Mod(seconds, 60)
	return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
}
