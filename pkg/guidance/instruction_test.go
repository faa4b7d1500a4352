package guidance

import "testing"

func TestMedia_Render(t *testing.T) {
	step := Step{Speech: "Good job. Now show me the lever", Image: "lever.jpg", Video: "lever.mp4"}

	tests := []struct {
		name   string
		media  Media
		expect Instruction
	}{
		{
			name:  "images only",
			media: Media{ImagePrefix: "feedback/images", ImageGuidance: true},
			expect: Instruction{
				Status: StatusSuccess,
				Speech: step.Speech,
				Image:  "feedback/images/lever.jpg",
			},
		},
		{
			name: "images and video",
			media: Media{
				ImagePrefix:   "feedback/images",
				ImageGuidance: true,
				VideoBaseURL:  "http://10.0.0.4:8000/",
			},
			expect: Instruction{
				Status: StatusSuccess,
				Speech: step.Speech,
				Image:  "feedback/images/lever.jpg",
				Video:  "http://10.0.0.4:8000/lever.mp4",
			},
		},
		{
			name:   "speech only",
			media:  Media{ImagePrefix: "feedback/images"},
			expect: Instruction{Status: StatusSuccess, Speech: step.Speech},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.media.Render(step)
			if got != tc.expect {
				t.Errorf("Render: got %+v, want %+v", got, tc.expect)
			}
		})
	}
}

func TestInstruction_Stripped(t *testing.T) {
	full := Instruction{Status: StatusSuccess, Speech: "hi", Image: "a.jpg", Video: "a.mp4"}
	if full.IsEmpty() {
		t.Error("full instruction reported empty")
	}
	stripped := full.Stripped()
	if !stripped.IsEmpty() {
		t.Errorf("Stripped: got %+v, want empty payload", stripped)
	}
	if stripped.Status != StatusSuccess {
		t.Errorf("Stripped status: got %s, want %s", stripped.Status, StatusSuccess)
	}
	if stripped != Noop() {
		t.Errorf("Stripped: got %+v, want %+v", stripped, Noop())
	}
}

func TestDefaultSteps_Complete(t *testing.T) {
	steps := DefaultSteps()
	for _, cue := range AllCues() {
		s, ok := steps[cue]
		if !ok {
			t.Errorf("cue %s: missing", cue)
			continue
		}
		if s.Speech == "" || s.Image == "" || s.Video == "" {
			t.Errorf("cue %s: incomplete step %+v", cue, s)
		}
	}
}

func TestState_IsValid(t *testing.T) {
	for _, s := range AllStates() {
		if !s.IsValid() {
			t.Errorf("%s: reported invalid", s)
		}
	}
	if State("lid").IsValid() {
		t.Error("unknown state reported valid")
	}
	if !StateFinished.IsTerminal() || StatePin.IsTerminal() {
		t.Error("only finished is terminal")
	}
}
