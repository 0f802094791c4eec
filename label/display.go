package label

import "fmt"

//Display 显示策略
type Display int

const (
	// DisplayIfSpace draws the label only when no more important label
	// clashes with it.
	DisplayIfSpace Display = iota
	DisplayAlways
	DisplayNever
)

//ParseDisplay 解析显示策略
func ParseDisplay(s string) (Display, error) {
	switch s {
	case "", "ifspace":
		return DisplayIfSpace, nil
	case "always":
		return DisplayAlways, nil
	case "never":
		return DisplayNever, nil
	}
	return DisplayIfSpace, fmt.Errorf("unknown display %q", s)
}

func (d Display) String() string {
	switch d {
	case DisplayAlways:
		return "always"
	case DisplayNever:
		return "never"
	}
	return "ifspace"
}

//Position 文字相对锚点的位置
type Position int

const (
	PositionAuto Position = iota
	PositionCenter
	PositionBelow
	PositionBelowLeft
	PositionBelowRight
	PositionAbove
	PositionAboveLeft
	PositionAboveRight
	PositionLeft
	PositionRight
)

var positionNames = map[string]Position{
	"auto":        PositionAuto,
	"center":      PositionCenter,
	"below":       PositionBelow,
	"below_left":  PositionBelowLeft,
	"below_right": PositionBelowRight,
	"above":       PositionAbove,
	"above_left":  PositionAboveLeft,
	"above_right": PositionAboveRight,
	"left":        PositionLeft,
	"right":       PositionRight,
}

//ParsePosition 解析位置
func ParsePosition(s string) (Position, error) {
	if s == "" {
		return PositionAuto, nil
	}
	if p, ok := positionNames[s]; ok {
		return p, nil
	}
	return PositionAuto, fmt.Errorf("unknown position %q", s)
}
