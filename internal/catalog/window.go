package catalog

import "fmt"

// WindowType is the kind of construction being priced.
type WindowType string

const (
	WindowSingle  WindowType = "single"
	WindowDouble  WindowType = "double"
	WindowTriple  WindowType = "triple"
	WindowBalcony WindowType = "balcony"
	WindowDoor    WindowType = "door"
)

type windowTypeInfo struct {
	label       string
	sashes      int
	coefficient float64
}

var windowTypeOrder = []WindowType{WindowSingle, WindowDouble, WindowTriple, WindowBalcony, WindowDoor}

var windowTypeTable = map[WindowType]windowTypeInfo{
	WindowSingle:  {label: "Single-sash window", sashes: 1, coefficient: 1.0},
	WindowDouble:  {label: "Double-sash window", sashes: 2, coefficient: 1.0},
	WindowTriple:  {label: "Triple-sash window", sashes: 3, coefficient: 1.0},
	WindowBalcony: {label: "Balcony block", sashes: 2, coefficient: 1.2},
	WindowDoor:    {label: "PVC entrance door", sashes: 1, coefficient: 1.5},
}

// WindowTypes returns every known window type in display order.
func WindowTypes() []WindowType {
	return append([]WindowType(nil), windowTypeOrder...)
}

// ParseWindowType validates a raw window type tag.
func ParseWindowType(raw string) (WindowType, error) {
	t := WindowType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown window type %q", raw)
	}
	return t, nil
}

// Valid reports whether t is one of the known window types.
func (t WindowType) Valid() bool {
	_, ok := windowTypeTable[t]
	return ok
}

// SashCount is the number of openable panels for t. Unknown types count as one sash.
func (t WindowType) SashCount() int {
	if info, ok := windowTypeTable[t]; ok {
		return info.sashes
	}
	return 1
}

// Coefficient scales the base price for t. Unknown types use 1.0.
func (t WindowType) Coefficient() float64 {
	if info, ok := windowTypeTable[t]; ok {
		return info.coefficient
	}
	return 1.0
}

// Label is the display name of t.
func (t WindowType) Label() string {
	if info, ok := windowTypeTable[t]; ok {
		return info.label
	}
	return string(t)
}
