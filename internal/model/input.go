package model

import (
	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/physics"
)

type action int

const (
	actionUp action = iota
	actionDown
	actionStart
)

type binding struct {
	side physics.Side // Bat the key belongs to in two-player mode
	act  action
}

type keymap map[string]binding

func newKeymap(k config.KeysConfig) keymap {
	km := make(keymap)
	add := func(keys []string, b binding) {
		for _, key := range keys {
			if _, taken := km[key]; !taken {
				km[key] = b
			}
		}
	}
	add(k.Start, binding{act: actionStart})
	add(k.LeftUp, binding{side: physics.Left, act: actionUp})
	add(k.LeftDown, binding{side: physics.Left, act: actionDown})
	add(k.RightUp, binding{side: physics.Right, act: actionUp})
	add(k.RightDown, binding{side: physics.Right, act: actionDown})
	return km
}

// input is the set of direction keys currently held, resolved to the bat
// they move.
type input struct {
	held map[string]binding
}

func newInput() input {
	return input{held: make(map[string]binding)}
}

func (in input) press(code string, b binding) bool {
	if _, ok := in.held[code]; ok {
		return false
	}
	in.held[code] = b
	return true
}

func (in input) release(code string) {
	delete(in.held, code)
}

func (in input) clear() {
	clear(in.held)
}

func (in input) intent(side physics.Side) physics.Intent {
	var up, down bool
	for _, b := range in.held {
		if b.side != side {
			continue
		}
		switch b.act {
		case actionUp:
			up = true
		case actionDown:
			down = true
		}
	}
	return physics.IntentFrom(up, down)
}
