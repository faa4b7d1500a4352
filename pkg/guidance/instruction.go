package guidance

import (
	"path"
	"strings"
)

// Status tags the outcome of a frame
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Instruction is what the user is told after a frame. Empty fields are
// absent. The struct is comparable, so two instructions are the same
// exactly when every field matches.
type Instruction struct {
	Status Status `json:"status"`
	Speech string `json:"speech,omitempty"`
	Image  string `json:"image,omitempty"`
	Video  string `json:"video,omitempty"`
}

// Noop returns the empty success instruction
func Noop() Instruction {
	return Instruction{Status: StatusSuccess}
}

// IsEmpty reports whether the instruction carries no speech, image or video
func (i Instruction) IsEmpty() bool {
	return i.Speech == "" && i.Image == "" && i.Video == ""
}

// Stripped returns a copy with speech, image and video removed
func (i Instruction) Stripped() Instruction {
	return Instruction{Status: i.Status}
}

// Control is an optional sensor directive attached to a transition
type Control struct {
	Flashlight *bool
}

// IsZero reports whether no directive is set
func (c Control) IsZero() bool {
	return c.Flashlight == nil
}

// FlashlightControl returns a control toggling the flashlight
func FlashlightControl(on bool) Control {
	return Control{Flashlight: &on}
}

// Cue identifies a piece of fixed step content
type Cue string

const (
	CueStart     Cue = "start"
	CueLever     Cue = "lever"
	CueDangling  Cue = "dangling"
	CueMisplaced Cue = "misplaced"
	CueGuide     Cue = "guide"
	CueCap       Cue = "cap"
	CueAssembled Cue = "assembled"
	CuePin       Cue = "pin"
	CuePlacePin  Cue = "place_pin"
	CueClamped   Cue = "clamped"
	CueFinished  Cue = "finished"
)

// AllCues returns every cue the machine can emit
func AllCues() []Cue {
	return []Cue{
		CueStart, CueLever, CueDangling, CueMisplaced, CueGuide, CueCap,
		CueAssembled, CuePin, CuePlacePin, CueClamped, CueFinished,
	}
}

// Step is the content template of a cue: spoken text plus the names of
// the reference image and video.
type Step struct {
	Speech string `yaml:"speech"`
	Image  string `yaml:"image"`
	Video  string `yaml:"video"`
}

// DefaultSteps returns the disk tray assembly script
func DefaultSteps() map[Cue]Step {
	return map[Cue]Step{
		CueStart: {
			Speech: "Put the tray on the table.",
			Image:  "tray.jpg",
			Video:  "tray.mp4",
		},
		CueLever: {
			Speech: "Good job. Now show me the lever",
			Image:  "lever.jpg",
			Video:  "lever.mp4",
		},
		CueDangling: {
			Speech: "Good. Now assemble the lever onto tray. Show me the vertical view.",
			Image:  "dangling.jpg",
			Video:  "dangling.mp4",
		},
		CueMisplaced: {
			Speech: "The lever is misplaced. Please make sure it is secure.",
			Image:  "dangling.jpg",
			Video:  "dangling.mp4",
		},
		CueGuide: {
			Speech: "Great. Insert the guide to the side of the tray. Place the tray on the table horizontally when done.",
			Image:  "guide.jpg",
			Video:  "guide.mp4",
		},
		CueCap: {
			Speech: "Okay. Find the cap and show me the side view with pin holding up",
			Image:  "cap.jpg",
			Video:  "cap.mp4",
		},
		CueAssembled: {
			Speech: "Excellent. Now assemble the cap onto the tray. Start from left to right. Show me a vertical view when done",
			Image:  "assembled.jpg",
			Video:  "assembled.mp4",
		},
		CuePin: {
			Speech: "Awesome. Show me a close-up view to see if the pin is at right place.",
			Image:  "pin.jpg",
			Video:  "pin.mp4",
		},
		CuePlacePin: {
			Speech: "Please place the pin into the slot.",
			Image:  "pin.jpg",
			Video:  "pin.mp4",
		},
		CueClamped: {
			Speech: "Fabulous. Now close the lever.",
			Image:  "clamped.jpg",
			Video:  "clamped.mp4",
		},
		CueFinished: {
			Speech: "Finished! Congratulations!",
			Image:  "finished.jpg",
			Video:  "finished.mp4",
		},
	}
}

// Media controls how step templates turn into references
type Media struct {
	ImagePrefix   string // joined in front of image names
	ImageGuidance bool   // attach image references
	VideoBaseURL  string // video references are BaseURL/name; empty disables video
}

// Render binds a step template to concrete references
func (m Media) Render(s Step) Instruction {
	inst := Instruction{Status: StatusSuccess, Speech: s.Speech}
	if m.ImageGuidance && s.Image != "" {
		inst.Image = path.Join(m.ImagePrefix, s.Image)
	}
	if m.VideoBaseURL != "" && s.Video != "" {
		inst.Video = strings.TrimRight(m.VideoBaseURL, "/") + "/" + s.Video
	}
	return inst
}
