package classify

import (
	"strings"
	"testing"

	"github.com/vmunix/omm/internal/media"
)

// record returns a compliant 1080p HEVC record that individual tests
// then break in exactly one way.
func record() *media.Record {
	return &media.Record{
		Path:        "/tv/show/Season 1/ep.mkv",
		Tier:        media.Tier1080p,
		Codec:       "hevc",
		BitDepth:    10,
		BitrateKbps: 3000,
	}
}

func TestEvaluate_Compliant(t *testing.T) {
	status, issues := Evaluate(record(), media.DefaultStandards())
	if status != media.StatusCompliant {
		t.Errorf("status = %v, want compliant", status)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
}

func TestEvaluate_ResolutionGateWins(t *testing.T) {
	// An under-resolved file is BelowStandard even when its bitrate and
	// codec would otherwise flag it for re-encoding.
	r := record()
	r.Tier = media.TierLowRes
	r.Codec = "h264"
	r.BitrateKbps = 9000

	status, issues := Evaluate(r, media.DefaultStandards())
	if status != media.StatusBelowStandard {
		t.Fatalf("status = %v, want below_standard", status)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "below minimum") {
		t.Errorf("issues = %v, want single resolution issue", issues)
	}
}

func TestEvaluate_BitrateAboveMax(t *testing.T) {
	r := record()
	r.BitrateKbps = 5200

	status, issues := Evaluate(r, media.DefaultStandards())
	if status != media.StatusNeedsReencoding {
		t.Errorf("status = %v, want needs_reencoding", status)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "exceeds max") {
		t.Errorf("issues = %v, want bitrate-above-max issue", issues)
	}
}

func TestEvaluate_BitrateBelowMin(t *testing.T) {
	// Under-bitrate at an acceptable tier is a re-encode candidate, not
	// below standard; only the resolution gate produces BelowStandard.
	r := record()
	r.BitrateKbps = 900

	status, issues := Evaluate(r, media.DefaultStandards())
	if status != media.StatusNeedsReencoding {
		t.Errorf("status = %v, want needs_reencoding", status)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "below minimum") {
		t.Errorf("issues = %v, want bitrate-below-min issue", issues)
	}
}

func TestEvaluate_CodecMismatch(t *testing.T) {
	r := record()
	r.Codec = "h264"

	status, issues := Evaluate(r, media.DefaultStandards())
	if status != media.StatusNeedsReencoding {
		t.Errorf("status = %v, want needs_reencoding", status)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "Codec is h264") {
		t.Errorf("issues = %v, want codec issue", issues)
	}
}

func TestEvaluate_CodecVariantsAccepted(t *testing.T) {
	for _, codec := range []string{"hevc", "h265", "av1"} {
		r := record()
		r.Codec = codec
		if status, _ := Evaluate(r, media.DefaultStandards()); status != media.StatusCompliant {
			t.Errorf("codec %s: status = %v, want compliant", codec, status)
		}
	}
}

func TestEvaluate_BitDepthPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy media.BitDepthPolicy
		depth  int
		want   media.Status
	}{
		{"source ignores 8-bit", media.DepthSource, 8, media.StatusCompliant},
		{"force_10bit rejects 8-bit", media.DepthForce10, 8, media.StatusNeedsReencoding},
		{"force_10bit accepts 10-bit", media.DepthForce10, 10, media.StatusCompliant},
		{"force_8bit rejects 10-bit", media.DepthForce8, 10, media.StatusNeedsReencoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := media.DefaultStandards()
			s.BitDepth = tt.policy
			r := record()
			r.BitDepth = tt.depth

			status, _ := Evaluate(r, s)
			if status != tt.want {
				t.Errorf("status = %v, want %v", status, tt.want)
			}
		})
	}
}

func TestEvaluate_ZeroBitrateSkipsCheck(t *testing.T) {
	r := record()
	r.BitrateKbps = 0

	status, issues := Evaluate(r, media.DefaultStandards())
	if status != media.StatusCompliant {
		t.Errorf("status = %v, want compliant (unmeasured bitrate)", status)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
}

func TestEvaluate_MultipleIssuesAccumulate(t *testing.T) {
	s := media.DefaultStandards()
	s.BitDepth = media.DepthForce10

	r := record()
	r.Codec = "h264"
	r.BitDepth = 8
	r.BitrateKbps = 5000

	status, issues := Evaluate(r, s)
	if status != media.StatusNeedsReencoding {
		t.Errorf("status = %v, want needs_reencoding", status)
	}
	if len(issues) != 3 {
		t.Errorf("issues = %v, want 3 (codec, bit depth, bitrate)", issues)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	r := record()
	r.Codec = "h264"
	s := media.DefaultStandards()

	s1, i1 := Evaluate(r, s)
	s2, i2 := Evaluate(r, s)
	if s1 != s2 || len(i1) != len(i2) {
		t.Error("Evaluate must be deterministic for identical inputs")
	}
	if r.Status != media.Status("") {
		t.Error("Evaluate must not mutate the record")
	}
}
