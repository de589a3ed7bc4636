package protocol

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vovakirdan/duopong/internal/physics"
)

// ErrMalformed is returned for frames that cannot be decoded into a message.
var ErrMalformed = errors.New("protocol: malformed message")

// Field numbers. Field 1 always carries the kind; the rest depend on it.
const (
	fieldKind protowire.Number = 1

	fieldBatSide   protowire.Number = 2
	fieldBatY      protowire.Number = 3
	fieldBatIntent protowire.Number = 4

	fieldBallTick  protowire.Number = 2
	fieldBallX     protowire.Number = 3
	fieldBallY     protowire.Number = 4
	fieldBallVX    protowire.Number = 5
	fieldBallVY    protowire.Number = 6
	fieldBallLeft  protowire.Number = 7
	fieldBallRight protowire.Number = 8
)

const maxScore = 1 << 30

// Encode serializes a message using the protobuf wire format.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("protocol: cannot encode nil message")
	}

	b := make([]byte, 0, 64)
	b = appendVarint(b, fieldKind, uint64(m.Kind()))

	switch v := m.(type) {
	case Hello, Ready:
	case BatState:
		b = appendVarint(b, fieldBatSide, uint64(v.Side))
		b = appendDouble(b, fieldBatY, v.Y)
		b = protowire.AppendTag(b, fieldBatIntent, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.Intent)))
	case BallState:
		b = appendVarint(b, fieldBallTick, v.Tick)
		b = appendDouble(b, fieldBallX, v.X)
		b = appendDouble(b, fieldBallY, v.Y)
		b = appendDouble(b, fieldBallVX, v.VX)
		b = appendDouble(b, fieldBallVY, v.VY)
		b = appendVarint(b, fieldBallLeft, uint64(max(0, v.Left)))   //nolint:gosec // clamped non-negative
		b = appendVarint(b, fieldBallRight, uint64(max(0, v.Right))) //nolint:gosec // clamped non-negative
	default:
		return nil, fmt.Errorf("protocol: cannot encode %T", m)
	}
	return b, nil
}

// Decode parses a frame produced by Encode. Unknown fields are skipped so
// newer peers can add fields; anything else unexpected is ErrMalformed.
func Decode(frame []byte) (Message, error) {
	varints := make(map[protowire.Number]uint64)
	doubles := make(map[protowire.Number]float64)

	for len(frame) > 0 {
		num, typ, n := protowire.ConsumeTag(frame)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		frame = frame[n:]

		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(frame)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			varints[num] = v
			frame = frame[m:]
		case protowire.Fixed64Type:
			v, m := protowire.ConsumeFixed64(frame)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			f := math.Float64frombits(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: field %d is not finite", ErrMalformed, num)
			}
			doubles[num] = f
			frame = frame[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, frame)
			if m < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			frame = frame[m:]
		}
	}

	kind, ok := varints[fieldKind]
	if !ok {
		return nil, fmt.Errorf("%w: missing kind", ErrMalformed)
	}

	switch Kind(kind) {
	case KindHello:
		return Hello{}, nil
	case KindReady:
		return Ready{}, nil
	case KindBat:
		return decodeBat(varints, doubles)
	case KindBall:
		return decodeBall(varints, doubles)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, kind)
	}
}

// Supersedable reports whether a later frame makes frame obsolete. Bat and
// ball states are replaced by the next state; the handshake messages are
// sent once and are not. Frames that do not decode are ignored on arrival,
// so they count as supersedable too.
func Supersedable(frame []byte) bool {
	msg, err := Decode(frame)
	if err != nil {
		return true
	}
	switch msg.Kind() {
	case KindBat, KindBall:
		return true
	case KindHello, KindReady:
		return false
	default:
		return true
	}
}

func decodeBat(varints map[protowire.Number]uint64, doubles map[protowire.Number]float64) (Message, error) {
	side := physics.Side(varints[fieldBatSide]) //nolint:gosec // validated below
	if side != physics.Left && side != physics.Right {
		return nil, fmt.Errorf("%w: bat side %d", ErrMalformed, varints[fieldBatSide])
	}
	y, ok := doubles[fieldBatY]
	if !ok {
		return nil, fmt.Errorf("%w: bat without position", ErrMalformed)
	}
	intent := protowire.DecodeZigZag(varints[fieldBatIntent])
	if intent < -1 || intent > 1 {
		return nil, fmt.Errorf("%w: bat intent %d", ErrMalformed, intent)
	}
	return BatState{Side: side, Y: y, Intent: physics.Intent(intent)}, nil
}

func decodeBall(varints map[protowire.Number]uint64, doubles map[protowire.Number]float64) (Message, error) {
	for _, f := range []protowire.Number{fieldBallX, fieldBallY, fieldBallVX, fieldBallVY} {
		if _, ok := doubles[f]; !ok {
			return nil, fmt.Errorf("%w: ball field %d missing", ErrMalformed, f)
		}
	}
	left, right := varints[fieldBallLeft], varints[fieldBallRight]
	if left > maxScore || right > maxScore {
		return nil, fmt.Errorf("%w: score out of range", ErrMalformed)
	}
	return BallState{
		Tick:  varints[fieldBallTick],
		X:     doubles[fieldBallX],
		Y:     doubles[fieldBallY],
		VX:    doubles[fieldBallVX],
		VY:    doubles[fieldBallVY],
		Left:  int(left),
		Right: int(right),
	}, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}
