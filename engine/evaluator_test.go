package engine

import "testing"

func TestEnvidoValue(t *testing.T) {
	tests := []struct {
		name string
		hand []Card
		want int
	}{
		{"two cards one suit", []Card{c(SuitEspadas, RankSiete), c(SuitEspadas, RankSeis), c(SuitBastos, RankCinco)}, 33},
		{"pair with offsuit high", []Card{c(SuitOros, RankCinco), c(SuitOros, RankSeis), c(SuitEspadas, RankAncho)}, 31},
		{"no pair takes highest face", []Card{c(SuitEspadas, RankAncho), c(SuitBastos, RankDos), c(SuitOros, RankTres)}, 3},
		{"figure pairs at twenty", []Card{c(SuitEspadas, RankSota), c(SuitEspadas, RankRey), c(SuitCopas, RankCuatro)}, 20},
		{"figure plus seven", []Card{c(SuitCopas, RankCaballo), c(SuitCopas, RankSiete), c(SuitOros, RankDos)}, 27},
		{"all offsuit figures", []Card{c(SuitEspadas, RankSota), c(SuitBastos, RankCaballo), c(SuitOros, RankRey)}, 0},
		{"flor picks best pair", []Card{c(SuitEspadas, RankSiete), c(SuitEspadas, RankSeis), c(SuitEspadas, RankCinco)}, 33},
		{"two card hand", []Card{c(SuitOros, RankSiete), c(SuitOros, RankCuatro)}, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvidoValue(tt.hand); got != tt.want {
				t.Errorf("EnvidoValue = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEnvidoValuePanicsOnBadHand(t *testing.T) {
	cases := map[string][]Card{
		"too short": {c(SuitEspadas, RankAncho)},
		"duplicate": {c(SuitEspadas, RankAncho), c(SuitEspadas, RankAncho), c(SuitOros, RankDos)},
		"empty slot": {c(SuitEspadas, RankAncho), EmptyCard, c(SuitOros, RankDos)},
	}
	for name, hand := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			EnvidoValue(hand)
		})
	}
}

func TestFlor(t *testing.T) {
	flor := []Card{c(SuitEspadas, RankCuatro), c(SuitEspadas, RankCinco), c(SuitEspadas, RankSeis)}
	if !HasFlor(flor) {
		t.Fatal("expected flor")
	}
	if got := FlorValue(flor); got != 35 {
		t.Errorf("FlorValue = %d, want 35", got)
	}

	figures := []Card{c(SuitCopas, RankSota), c(SuitCopas, RankCaballo), c(SuitCopas, RankSiete)}
	if got := FlorValue(figures); got != 27 {
		t.Errorf("FlorValue with figures = %d, want 27", got)
	}

	mixed := []Card{c(SuitEspadas, RankCuatro), c(SuitOros, RankCinco), c(SuitEspadas, RankSeis)}
	if HasFlor(mixed) {
		t.Error("mixed suits should not be flor")
	}
}

func TestFlorValuePanicsWithoutFlor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	FlorValue([]Card{c(SuitEspadas, RankCuatro), c(SuitOros, RankCinco), c(SuitEspadas, RankSeis)})
}

func TestHandStrength(t *testing.T) {
	weak := []Card{c(SuitOros, RankCuatro), c(SuitCopas, RankCinco), c(SuitBastos, RankSeis)}
	strong := []Card{c(SuitEspadas, RankAncho), c(SuitBastos, RankAncho), c(SuitEspadas, RankSiete)}
	ws, ss := HandStrength(weak), HandStrength(strong)
	if ws <= 0 || ws > 1 || ss <= 0 || ss > 1 {
		t.Fatalf("strengths out of range: weak %f, strong %f", ws, ss)
	}
	if ss <= ws {
		t.Errorf("strong hand %f should outscore weak hand %f", ss, ws)
	}

	// Replacing a card with a strictly stronger one never lowers the score.
	upgraded := []Card{c(SuitOros, RankCuatro), c(SuitCopas, RankCinco), c(SuitEspadas, RankAncho)}
	if HandStrength(upgraded) <= ws {
		t.Error("upgrading a card lowered the hand strength")
	}
}
