package domain

import (
	"reflect"
	"testing"
)

func TestNewInitialState(t *testing.T) {
	state := NewInitialState()

	wantSnake := []Cell{{10, 10}, {10, 11}, {10, 12}}
	if !reflect.DeepEqual(state.Snake, wantSnake) {
		t.Errorf("Snake = %v, want %v", state.Snake, wantSnake)
	}
	if state.Food != (Cell{5, 5}) {
		t.Errorf("Food = %v, want [5 5]", state.Food)
	}
	if state.Direction != DirectionUp {
		t.Errorf("Direction = %q, want %q", state.Direction, DirectionUp)
	}
	if state.Score != 0 {
		t.Errorf("Score = %d, want 0", state.Score)
	}
	if state.GameOver {
		t.Error("GameOver = true, want false")
	}

	// Every new session starts from the same state
	if !reflect.DeepEqual(NewInitialState(), state) {
		t.Error("NewInitialState is not deterministic")
	}
}

func TestValidDirection(t *testing.T) {
	for _, d := range []Direction{DirectionUp, DirectionDown, DirectionLeft, DirectionRight} {
		if !ValidDirection(d) {
			t.Errorf("ValidDirection(%q) = false", d)
		}
	}
	for _, d := range []Direction{"", "diagonal", "UP", "north"} {
		if ValidDirection(d) {
			t.Errorf("ValidDirection(%q) = true", d)
		}
	}
}
