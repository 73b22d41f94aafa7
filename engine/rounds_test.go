package engine

import "testing"

func TestRoundWinnerFromTricks(t *testing.T) {
	p, a, pd := TrickPlayer, TrickAI, TrickParda
	tests := []struct {
		name   string
		tricks []TrickWinner
		mano   Seat
		winner Seat
		done   bool
	}{
		{"two straight player", []TrickWinner{p, p}, SeatPlayer, SeatPlayer, true},
		{"two straight ai", []TrickWinner{a, a}, SeatPlayer, SeatAI, true},
		{"rubber trick", []TrickWinner{p, a, p}, SeatAI, SeatPlayer, true},
		{"one trick undecided", []TrickWinner{p}, SeatPlayer, SeatNone, false},
		{"split undecided", []TrickWinner{p, a}, SeatPlayer, SeatNone, false},
		{"leading parda settled by next", []TrickWinner{pd, p}, SeatAI, SeatPlayer, true},
		{"two leading pardas settled by third", []TrickWinner{pd, pd, a}, SeatPlayer, SeatAI, true},
		{"all pardas to mano", []TrickWinner{pd, pd, pd}, SeatAI, SeatAI, true},
		{"parda after win goes to prior winner", []TrickWinner{p, pd}, SeatAI, SeatPlayer, true},
		{"parda after split goes to nearest winner", []TrickWinner{pd, a, pd}, SeatPlayer, SeatAI, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, done := roundWinnerFromTricks(tt.tricks, tt.mano)
			if winner != tt.winner || done != tt.done {
				t.Errorf("got (%s, %t), want (%s, %t)", winner, done, tt.winner, tt.done)
			}
		})
	}
}

func TestRoundStake(t *testing.T) {
	g := NewGame(1, DefaultRules())
	if got := g.roundStake(); got != 1 {
		t.Errorf("stake without truco = %d, want 1", got)
	}
	for level, want := range map[uint8]int{1: 2, 2: 3, 3: 4} {
		g.TrucoLevel = level
		if got := g.roundStake(); got != want {
			t.Errorf("stake at level %d = %d, want %d", level, got, want)
		}
	}
}
