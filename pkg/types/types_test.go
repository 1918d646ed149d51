package types

import "testing"

func TestTeamOpponent(t *testing.T) {
	tests := []struct {
		team Team
		want Team
	}{
		{TeamRed, TeamBlue},
		{TeamBlue, TeamRed},
		{TeamUnknown, TeamUnknown},
	}
	for _, tt := range tests {
		if got := tt.team.Opponent(); got != tt.want {
			t.Errorf("%v.Opponent() = %v, want %v", tt.team, got, tt.want)
		}
	}
}

func TestHitFlagsOps(t *testing.T) {
	f := FlagNone.With(FlagFlinch | FlagFlash)
	if !f.Has(FlagFlinch) || !f.Has(FlagFlash) {
		t.Fatalf("expected flinch|flash, got %b", f)
	}
	if f.Has(FlagFlinch | FlagBreaking) {
		t.Error("Has must require every bit")
	}
	f = f.Without(FlagFlinch)
	if f.Has(FlagFlinch) || !f.Has(FlagFlash) {
		t.Errorf("Without removed the wrong bits: %b", f)
	}
	if FlagFlinch != 1 {
		t.Errorf("FlagFlinch should be the lowest bit, got %d", FlagFlinch)
	}
}

func TestParseElement(t *testing.T) {
	e, ok := ParseElement("wind")
	if !ok || e != ElementWind {
		t.Errorf("ParseElement(wind) = %v, %v", e, ok)
	}
	if _, ok := ParseElement("plasma"); ok {
		t.Error("unknown element should not parse")
	}
}

func TestPlaybackModeString(t *testing.T) {
	if got := PlaybackOnce.String(); got != "Once" {
		t.Errorf("got %q", got)
	}
	if got := (PlaybackLoop | PlaybackBounce).String(); got != "Loop|Bounce" {
		t.Errorf("got %q", got)
	}
}

func TestEntityKindBlocking(t *testing.T) {
	if !KindCharacter.Blocking() || !KindObstacle.Blocking() {
		t.Error("characters and obstacles block tiles")
	}
	if KindHitbox.Blocking() || KindSpell.Blocking() || KindArtifact.Blocking() {
		t.Error("hitboxes, spells and artifacts do not block tiles")
	}
}
