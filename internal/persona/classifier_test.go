// internal/persona/classifier_test.go
package persona

import "testing"

func TestClassify(t *testing.T) {
	c := NewRegexClassifier()

	tests := []struct {
		name           string
		persona        string
		prompt         string
		hasAttachments bool
		want           Intent
	}{
		{"plain chat", Friendly, "what's the weather like?", false, IntentChat},
		{"image generation", Friendly, "generate an image of a cat", false, IntentGenerateImage},
		{"draw variant", Friendly, "please draw me a picture of a boat", false, IntentGenerateImage},
		{"create photo", Friendly, "Create a photo of the alps", false, IntentGenerateImage},
		{"edit with attachment", Friendly, "remove the background", true, IntentEditImage},
		{"edit verb without attachment is chat", Friendly, "change my mind about Go", false, IntentChat},
		{"gen phrase with attachment and edit verb", Friendly, "edit this to make it an image of a dog", true, IntentEditImage},
		{"essay refusal only for insulting persona", Insulting, "write my essay on whales", false, IntentRefuse},
		{"homework refusal", Insulting, "do my homework", false, IntentRefuse},
		{"essay fine for friendly persona", Friendly, "write my essay on whales", false, IntentChat},
		{"insulting persona normal prompt", Insulting, "what's a monad?", false, IntentChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.persona, tt.prompt, tt.hasAttachments)
			if got != tt.want {
				t.Errorf("Classify(%q, %q, %v) = %v, want %v", tt.persona, tt.prompt, tt.hasAttachments, got, tt.want)
			}
		})
	}
}

func TestGet_FallsBackToFriendly(t *testing.T) {
	if Get("nonsense").Key != Friendly {
		t.Error("unknown key should fall back to friendly")
	}
	if Get(Brainrot).Key != Brainrot {
		t.Error("known key should resolve")
	}
}

func TestPersonas_CarryIdentityRules(t *testing.T) {
	for _, p := range All() {
		if len(p.Instruction) == 0 {
			t.Errorf("persona %s has no instruction", p.Key)
		}
	}
}
