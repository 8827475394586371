package command

import (
	"encoding/json"
	"errors"
	"fmt"
)

// KeyCode is a front-panel key number as reported by the key driver.
type KeyCode uint8

const (
	KeyCodeUp KeyCode = iota + 1
	KeyCodeDown
	KeyCodeLeft
	KeyCodeRight
)

// FromKey maps a key code to its command. Unknown codes yield ok == false.
func FromKey(code KeyCode) (Command, bool) {
	switch code {
	case KeyCodeUp:
		return KeyUp, true
	case KeyCodeDown:
		return KeyDown, true
	case KeyCodeLeft:
		return KeyLeft, true
	case KeyCodeRight:
		return KeyRight, true
	}
	return Command{}, false
}

// VoiceCode is an opcode emitted by the SU-03T voice module.
type VoiceCode uint8

const (
	VoiceLightOn VoiceCode = iota + 1
	VoiceLightOff
	VoiceMotorOn
	VoiceMotorOff
	VoiceTemperatureGet
	VoiceHumidityGet
	VoiceIlluminanceGet
)

// FromVoice maps a voice opcode to its command. Unknown codes yield ok == false.
func FromVoice(code VoiceCode) (Command, bool) {
	switch code {
	case VoiceLightOn:
		return LightOn, true
	case VoiceLightOff:
		return LightOff, true
	case VoiceMotorOn:
		return MotorOn, true
	case VoiceMotorOff:
		return MotorOff, true
	case VoiceTemperatureGet:
		return VoiceQuery(MetricTemperature), true
	case VoiceHumidityGet:
		return VoiceQuery(MetricHumidity), true
	case VoiceIlluminanceGet:
		return VoiceQuery(MetricIlluminance), true
	}
	return Command{}, false
}

// Network command names.
const (
	NameLight  = "light_control"
	NameMotor  = "motor_control"
	NameAuto   = "auto_control"
	NameStatus = "mqtt_control"
	NameBeep   = "beep_control"
)

// Errors returned by ParseNetwork. FromNetwork swallows all of them.
var (
	ErrMalformed      = errors.New("command: malformed message")
	ErrUnknownCommand = errors.New("command: unknown command_name")
	ErrMissingParam   = errors.New("command: missing parameter")
	ErrBadValue       = errors.New("command: invalid parameter value")
)

// Message is the cloud control message.
type Message struct {
	CommandName string          `json:"command_name"`
	Paras       json.RawMessage `json:"paras"`
}

type switchParas struct {
	OnOff *string `json:"onoff"`
}

type valueParas struct {
	Value *string `json:"value"`
}

// FromNetwork parses a cloud control message. Anything malformed or
// unrecognized yields ok == false.
func FromNetwork(payload []byte) (Command, bool) {
	cmd, err := ParseNetwork(payload)
	return cmd, err == nil
}

// ParseNetwork parses a cloud control message and reports why it was
// rejected. It never panics on arbitrary input.
func ParseNetwork(payload []byte) (Command, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.CommandName == "" {
		return Command{}, fmt.Errorf("%w: command_name", ErrMissingParam)
	}

	switch msg.CommandName {
	case NameLight:
		return parseSwitch(msg, LightOn, LightOff)
	case NameMotor:
		return parseSwitch(msg, MotorOn, MotorOff)
	case NameAuto:
		return parseSwitch(msg, AutoOn, AutoOff)
	case NameBeep:
		return parseSwitch(msg, AlarmOn, AlarmOff)
	case NameStatus:
		var p valueParas
		if err := decodeParas(msg, &p); err != nil {
			return Command{}, err
		}
		if p.Value == nil {
			return Command{}, fmt.Errorf("%w: paras.value", ErrMissingParam)
		}
		return FreeTextStatus(*p.Value), nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.CommandName)
}

func parseSwitch(msg Message, on, off Command) (Command, error) {
	var p switchParas
	if err := decodeParas(msg, &p); err != nil {
		return Command{}, err
	}
	if p.OnOff == nil {
		return Command{}, fmt.Errorf("%w: paras.onoff", ErrMissingParam)
	}
	switch *p.OnOff {
	case "ON":
		return on, nil
	case "OFF":
		return off, nil
	}
	return Command{}, fmt.Errorf("%w: onoff=%q", ErrBadValue, *p.OnOff)
}

func decodeParas(msg Message, v any) error {
	if len(msg.Paras) == 0 || string(msg.Paras) == "null" {
		return fmt.Errorf("%w: paras", ErrMissingParam)
	}
	if err := json.Unmarshal(msg.Paras, v); err != nil {
		return fmt.Errorf("%w: paras: %v", ErrMalformed, err)
	}
	return nil
}
