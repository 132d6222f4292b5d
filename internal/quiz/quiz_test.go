package quiz

import (
	"strings"
	"testing"

	"github.com/anand/mathdrill/internal/question"
)

func TestBandsTier(t *testing.T) {
	b := DefaultBands

	tests := []struct {
		index int
		want  question.Tier
	}{
		{1, question.TierEasy},
		{7, question.TierEasy},
		{8, question.TierMedium},
		{15, question.TierMedium},
		{16, question.TierHard},
		{25, question.TierHard},
		// Out of range clamps to the nearest band.
		{0, question.TierEasy},
		{-3, question.TierEasy},
		{26, question.TierHard},
		{1000, question.TierHard},
	}
	for _, tt := range tests {
		if got := b.Tier(tt.index); got != tt.want {
			t.Errorf("Tier(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestBandsValidate(t *testing.T) {
	tests := []struct {
		name    string
		bands   Bands
		total   int
		wantErr bool
	}{
		{"default", DefaultBands, 25, false},
		{"minimal", Bands{EasyMax: 1, MediumMax: 2}, 3, false},
		{"easy zero", Bands{EasyMax: 0, MediumMax: 15}, 25, true},
		{"easy equals medium", Bands{EasyMax: 15, MediumMax: 15}, 25, true},
		{"medium equals total", Bands{EasyMax: 7, MediumMax: 25}, 25, true},
		{"inverted", Bands{EasyMax: 15, MediumMax: 7}, 25, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bands.Validate(tt.total)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%d) error = %v, wantErr %v", tt.total, err, tt.wantErr)
			}
		})
	}
}

func TestDedupKey(t *testing.T) {
	if dedupKey(3, "short question") != "3:short question" {
		t.Errorf("unexpected key: %q", dedupKey(3, "short question"))
	}

	long := strings.Repeat("x", 100)
	key := dedupKey(5, long)
	if len(key) != len("5:")+dedupKeyPrefixLen {
		t.Errorf("long text not truncated: %q", key)
	}

	// Same index, different prefix: distinct keys.
	if dedupKey(1, "alpha question") == dedupKey(1, "beta question") {
		t.Error("expected distinct keys for different question text")
	}
	// Same prefix, different index: distinct keys.
	if dedupKey(1, "same text") == dedupKey(2, "same text") {
		t.Error("expected distinct keys for different indices")
	}

	// Truncation respects rune boundaries.
	unicode := strings.Repeat("π", 60)
	key = dedupKey(7, unicode)
	if !strings.HasPrefix(key, "7:"+strings.Repeat("π", dedupKeyPrefixLen)) {
		t.Errorf("rune truncation wrong: %q", key)
	}
}

func TestScorePercent(t *testing.T) {
	s := &Session{Total: 25}
	if got := s.ScorePercent(); got != 0 {
		t.Errorf("empty session percent = %v, want 0", got)
	}

	s.Index = 11 // 10 answered.
	s.Score = 7
	if got := s.ScorePercent(); got != 70 {
		t.Errorf("mid-session percent = %v, want 70", got)
	}

	s.Index = 26
	s.Finished = true
	s.Score = 20
	if got := s.ScorePercent(); got != 80 {
		t.Errorf("finished percent = %v, want 80", got)
	}
}
