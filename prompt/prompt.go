package prompt

import (
	"fmt"
	"strings"

	"github.com/marinsell/onwater-studio/models"
)

// DefaultNegativePrompt captures artefacts the generator must avoid.
const DefaultNegativePrompt = "low quality, blurry, warped hull, distorted proportions, duplicated railings, extra masts, text artefacts, watermark, people that were not in the source photo"

var modeDescriptions = map[string]string{
	"cruising": "underway at an easy cruise, bow gently parting calm water with a soft wake trailing astern",
	"docked":   "tied alongside a clean marina dock, fenders out and lines neatly cleated",
	"anchored": "resting at anchor in a sheltered cove on still, glassy water",
	"planing":  "up on plane at speed, spray kicking off the chines and a crisp white wake behind",
}

var moodDescriptions = map[string]string{
	"golden-hour": "warm golden-hour light, long soft shadows and a glowing horizon",
	"midday-sun":  "bright midday sun, deep blue water and strong natural contrast",
	"overcast":    "soft overcast light with even diffuse tones and muted reflections",
	"twilight":    "blue-hour twilight with a dusky sky and warm cabin lights reflecting on the water",
	"storm-light": "dramatic pre-storm light, dark clouds breaking with shafts of sun on choppy water",
}

var lensDescriptions = map[string]string{
	"wide-angle": "a wide-angle shot taken from near water level, emphasising the bow and open sky",
	"standard":   "a natural 50mm perspective at deck height, true-to-life proportions",
	"telephoto":  "a compressed telephoto framing from a distance, boat isolated against the water",
	"drone":      "an elevated drone view looking down across the hull and its wake",
}

var aspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"16:9": true,
	"9:16": true,
}

// ValidateParams rejects unknown enum values before any provider is called.
// Location and emphasis are free text and accepted as-is.
func ValidateParams(p models.SceneParams) error {
	if _, ok := modeDescriptions[p.Mode]; !ok {
		return fmt.Errorf("invalid mode %q", p.Mode)
	}
	if _, ok := moodDescriptions[p.Mood]; !ok {
		return fmt.Errorf("invalid mood %q", p.Mood)
	}
	if _, ok := lensDescriptions[p.Lens]; !ok {
		return fmt.Errorf("invalid lens %q", p.Lens)
	}
	if !aspectRatios[p.AspectRatio] {
		return fmt.Errorf("invalid aspectRatio %q", p.AspectRatio)
	}
	return nil
}

// BuildScenePrompt converts the scene parameters into a natural language
// instruction for the image model. The uploaded lot photo is attached
// separately; the prompt tells the model to keep that exact boat.
func BuildScenePrompt(p models.SceneParams) string {
	var lines []string

	lines = append(lines, "Regenerate the attached boat-lot photograph as a realistic on-water scene.")
	lines = append(lines, "Keep the exact boat from the photo: same hull shape, colours, graphics, registration numbers, and fittings. Do not substitute a different boat.")

	location := strings.TrimSpace(p.Location)
	if location == "" {
		location = "open coastal water"
	}
	lines = append(lines, fmt.Sprintf("Setting: %s.", location))

	lines = append(lines, fmt.Sprintf("Scene: the boat is %s.", modeDescriptions[p.Mode]))
	lines = append(lines, fmt.Sprintf("Lighting: %s.", moodDescriptions[p.Mood]))
	lines = append(lines, fmt.Sprintf("Framing: %s.", lensDescriptions[p.Lens]))
	lines = append(lines, fmt.Sprintf("Compose for a %s aspect ratio.", p.AspectRatio))

	var emphasis []string
	for _, e := range p.Emphasis {
		if e = strings.TrimSpace(e); e != "" {
			emphasis = append(emphasis, e)
		}
	}
	if len(emphasis) > 0 {
		lines = append(lines, "Emphasise: "+strings.Join(emphasis, "; ")+".")
	}

	lines = append(lines, "Remove the trailer, lot pavement, buildings, and any price signage from the original photo.")
	lines = append(lines, "Avoid: "+DefaultNegativePrompt+".")

	return strings.Join(lines, "\n")
}

// AspectRatioSize maps an aspect ratio to the closest size the fallback
// image API supports.
func AspectRatioSize(aspect string) string {
	switch strings.TrimSpace(aspect) {
	case "16:9", "4:3":
		return "1792x1024"
	case "9:16", "3:4":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}
