package control

import (
	"context"

	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/dispatch"
)

// written marks the actuator fields a command set this cycle. Auto mode
// leaves them alone until the next cycle.
type written struct {
	light bool
	motor bool
}

// apply performs one command. Each state-changing command writes exactly
// one field. The error is non-nil only when ctx ends during alarm playback.
func (l *Loop) apply(ctx context.Context, ev dispatch.Event) (written, error) {
	var w written
	cmd := ev.Command
	l.log.Infow("command", "origin", ev.Origin, "command", cmd.String())
	l.metrics.CommandApplied(string(ev.Origin), cmd.Kind.String())
	l.rec.RecordCommand(ev.Origin)

	switch cmd.Kind {
	case command.KindLightOn, command.KindLightOff:
		l.setLight(cmd.Kind == command.KindLightOn)
		w.light = true
	case command.KindMotorOn, command.KindMotorOff:
		l.setMotor(cmd.Kind == command.KindMotorOn)
		w.motor = true
	case command.KindAutoOn, command.KindAutoOff:
		on := cmd.Kind == command.KindAutoOn
		if l.store.SetAuto(on) {
			l.log.Infow("auto mode", "on", on)
		}
	case command.KindKeyUp:
	case command.KindKeyDown:
		w = l.toggleSelected()
	case command.KindKeyLeft:
		if l.menu.Left() {
			l.menuMoved()
		}
	case command.KindKeyRight:
		if l.menu.Right() {
			l.menuMoved()
		}
	case command.KindVoiceQuery:
		l.answer(cmd.Metric)
	case command.KindFreeTextStatus:
		l.store.SetStatusText(cmd.Text)
	case command.KindAlarmOn:
		return w, l.soundAlarm(ctx)
	case command.KindAlarmOff:
		// Playback is one-shot; there is nothing running to stop.
		l.log.Debugw("alarm off ignored")
	default:
		l.log.Warnw("unhandled command", "command", cmd.String())
	}
	return w, nil
}

// setLight records and actuates an explicit light request. The output is
// written even when the stored value is unchanged.
func (l *Loop) setLight(on bool) {
	l.store.SetLight(on)
	l.driveLight(on)
}

func (l *Loop) setMotor(on bool) {
	l.store.SetMotor(on)
	l.driveMotor(on)
}

func (l *Loop) toggleSelected() written {
	state := l.store.State()
	switch l.menu.Selected() {
	case MenuLight:
		l.setLight(!state.LightOn)
		return written{light: true}
	case MenuFan:
		l.setMotor(!state.MotorOn)
		return written{motor: true}
	}
	return written{}
}

func (l *Loop) menuMoved() {
	item := l.menu.Selected()
	l.log.Debugw("menu", "index", l.menu.Index(), "item", item.String())
	l.rec.SetMenu(l.menu.Index(), item.String())
}

// answer reads the asked-for sensor now and speaks the value. A failed read
// is announced as zero.
func (l *Loop) answer(m command.Metric) {
	var value float64
	var err error
	sensor := "climate"
	switch m {
	case command.MetricTemperature:
		value, _, err = l.sensors.ReadTemperatureHumidity()
	case command.MetricHumidity:
		_, value, err = l.sensors.ReadTemperatureHumidity()
	case command.MetricIlluminance:
		sensor = "light"
		value, err = l.sensors.ReadIlluminance()
	default:
		l.log.Warnw("unknown voice query", "metric", m.String())
		return
	}
	if err != nil {
		l.sensorFailed(sensor, err)
		value = 0
	}

	if l.voice == nil {
		l.log.Debugw("voice query without a voice link", "metric", m.String())
		return
	}
	if err := l.voice.Reply(m, value); err != nil {
		l.log.Warnw("voice reply failed", "metric", m.String(), "error", err)
	}
}
