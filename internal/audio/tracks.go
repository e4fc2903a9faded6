package audio

// Track is one entry in the bundled background music library. Files live
// under the assets directory configured at startup.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Mood        string `json:"mood"`
	Filename    string `json:"filename"`
}

// NoneTrackID disables background music for a render.
const NoneTrackID = "none"

var library = []Track{
	{ID: "calm-horizon", Name: "Calm Horizon", Description: "Slow ambient pads for reflective narration", Mood: "calm", Filename: "calm-horizon.mp3"},
	{ID: "bright-steps", Name: "Bright Steps", Description: "Light upbeat plucks for product walkthroughs", Mood: "upbeat", Filename: "bright-steps.mp3"},
	{ID: "night-drive", Name: "Night Drive", Description: "Moody synth bed for dramatic hooks", Mood: "dramatic", Filename: "night-drive.mp3"},
	{ID: "paper-lanterns", Name: "Paper Lanterns", Description: "Gentle plucked strings for storytelling", Mood: "warm", Filename: "paper-lanterns.mp3"},
	{ID: "deep-focus", Name: "Deep Focus", Description: "Minimal pulse for explainers and tutorials", Mood: "neutral", Filename: "deep-focus.mp3"},
}

// Tracks returns the music library in a stable order.
func Tracks() []Track {
	out := make([]Track, len(library))
	copy(out, library)
	return out
}

// FindTrack looks a track up by ID. The "none" sentinel and the empty string
// return ok=false without being an error.
func FindTrack(id string) (Track, bool) {
	if id == "" || id == NoneTrackID {
		return Track{}, false
	}
	for _, t := range library {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
