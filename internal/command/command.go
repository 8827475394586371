// Package command normalizes the three input vocabularies (front-panel keys,
// the voice module and cloud control messages) onto one Command type.
// This package has NO external dependencies (no GPIO, MQTT or serial access).
package command

import "fmt"

// Kind identifies the variant of a Command.
type Kind int

const (
	KindNone Kind = iota
	KindLightOn
	KindLightOff
	KindMotorOn
	KindMotorOff
	KindAutoOn
	KindAutoOff
	KindKeyUp
	KindKeyDown
	KindKeyLeft
	KindKeyRight
	KindVoiceQuery
	KindFreeTextStatus
	KindAlarmOn
	KindAlarmOff
)

var kindNames = map[Kind]string{
	KindNone:           "NONE",
	KindLightOn:        "LIGHT_ON",
	KindLightOff:       "LIGHT_OFF",
	KindMotorOn:        "MOTOR_ON",
	KindMotorOff:       "MOTOR_OFF",
	KindAutoOn:         "AUTO_ON",
	KindAutoOff:        "AUTO_OFF",
	KindKeyUp:          "KEY_UP",
	KindKeyDown:        "KEY_DOWN",
	KindKeyLeft:        "KEY_LEFT",
	KindKeyRight:       "KEY_RIGHT",
	KindVoiceQuery:     "VOICE_QUERY",
	KindFreeTextStatus: "FREE_TEXT_STATUS",
	KindAlarmOn:        "ALARM_ON",
	KindAlarmOff:       "ALARM_OFF",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Metric names a reading the voice module can ask for.
type Metric int

const (
	MetricTemperature Metric = iota + 1
	MetricHumidity
	MetricIlluminance
)

func (m Metric) String() string {
	switch m {
	case MetricTemperature:
		return "temperature"
	case MetricHumidity:
		return "humidity"
	case MetricIlluminance:
		return "illuminance"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Command is a normalized user or remote intent. Metric is only meaningful
// for KindVoiceQuery and Text only for KindFreeTextStatus.
type Command struct {
	Kind   Kind
	Metric Metric
	Text   string
}

// Simple constructors for the payload-free variants.
var (
	LightOn  = Command{Kind: KindLightOn}
	LightOff = Command{Kind: KindLightOff}
	MotorOn  = Command{Kind: KindMotorOn}
	MotorOff = Command{Kind: KindMotorOff}
	AutoOn   = Command{Kind: KindAutoOn}
	AutoOff  = Command{Kind: KindAutoOff}
	KeyUp    = Command{Kind: KindKeyUp}
	KeyDown  = Command{Kind: KindKeyDown}
	KeyLeft  = Command{Kind: KindKeyLeft}
	KeyRight = Command{Kind: KindKeyRight}
	AlarmOn  = Command{Kind: KindAlarmOn}
	AlarmOff = Command{Kind: KindAlarmOff}
)

// VoiceQuery asks for a reading to be spoken back on the voice channel.
func VoiceQuery(m Metric) Command {
	return Command{Kind: KindVoiceQuery, Metric: m}
}

// FreeTextStatus sets the free-form status string.
func FreeTextStatus(text string) Command {
	return Command{Kind: KindFreeTextStatus, Text: text}
}

func (c Command) String() string {
	switch c.Kind {
	case KindVoiceQuery:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Metric)
	case KindFreeTextStatus:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Text)
	default:
		return c.Kind.String()
	}
}

// Origin identifies which producer a command came from.
type Origin string

const (
	OriginKey     Origin = "key"
	OriginVoice   Origin = "voice"
	OriginNetwork Origin = "network"
)
