package command

import (
	"errors"
	"testing"
)

func TestFromKey(t *testing.T) {
	tests := []struct {
		code KeyCode
		want Command
	}{
		{KeyCodeUp, KeyUp},
		{KeyCodeDown, KeyDown},
		{KeyCodeLeft, KeyLeft},
		{KeyCodeRight, KeyRight},
	}
	for _, tt := range tests {
		got, ok := FromKey(tt.code)
		if !ok {
			t.Errorf("FromKey(%d): expected ok", tt.code)
			continue
		}
		if got != tt.want {
			t.Errorf("FromKey(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFromKeyUnknown(t *testing.T) {
	for _, code := range []KeyCode{0, 5, 0xff} {
		if cmd, ok := FromKey(code); ok {
			t.Errorf("FromKey(%d) = %v, want no command", code, cmd)
		}
	}
}

func TestFromVoice(t *testing.T) {
	tests := []struct {
		code VoiceCode
		want Command
	}{
		{VoiceLightOn, LightOn},
		{VoiceLightOff, LightOff},
		{VoiceMotorOn, MotorOn},
		{VoiceMotorOff, MotorOff},
		{VoiceTemperatureGet, VoiceQuery(MetricTemperature)},
		{VoiceHumidityGet, VoiceQuery(MetricHumidity)},
		{VoiceIlluminanceGet, VoiceQuery(MetricIlluminance)},
	}
	for _, tt := range tests {
		got, ok := FromVoice(tt.code)
		if !ok {
			t.Errorf("FromVoice(%d): expected ok", tt.code)
			continue
		}
		if got != tt.want {
			t.Errorf("FromVoice(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFromVoiceUnknown(t *testing.T) {
	for _, code := range []VoiceCode{0, 8, 0x55, 0xaa} {
		if cmd, ok := FromVoice(code); ok {
			t.Errorf("FromVoice(%#x) = %v, want no command", code, cmd)
		}
	}
}

func TestFromNetworkLightControl(t *testing.T) {
	cmd, ok := FromNetwork([]byte(`{"command_name":"light_control","paras":{"onoff":"ON"}}`))
	if !ok || cmd != LightOn {
		t.Errorf("got (%v, %v), want (LIGHT_ON, true)", cmd, ok)
	}

	cmd, ok = FromNetwork([]byte(`{"command_name":"light_control","paras":{"onoff":"OFF"}}`))
	if !ok || cmd != LightOff {
		t.Errorf("got (%v, %v), want (LIGHT_OFF, true)", cmd, ok)
	}
}

func TestFromNetworkAllSwitches(t *testing.T) {
	tests := []struct {
		payload string
		want    Command
	}{
		{`{"command_name":"motor_control","paras":{"onoff":"ON"}}`, MotorOn},
		{`{"command_name":"motor_control","paras":{"onoff":"OFF"}}`, MotorOff},
		{`{"command_name":"auto_control","paras":{"onoff":"ON"}}`, AutoOn},
		{`{"command_name":"auto_control","paras":{"onoff":"OFF"}}`, AutoOff},
		{`{"command_name":"beep_control","paras":{"onoff":"ON"}}`, AlarmOn},
		{`{"command_name":"beep_control","paras":{"onoff":"OFF"}}`, AlarmOff},
		{`{"paras":{"onoff":"ON"},"command_name":"light_control","service_id":"x"}`, LightOn},
	}
	for _, tt := range tests {
		got, err := ParseNetwork([]byte(tt.payload))
		if err != nil {
			t.Errorf("ParseNetwork(%s): unexpected error %v", tt.payload, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNetwork(%s) = %v, want %v", tt.payload, got, tt.want)
		}
	}
}

func TestFromNetworkStatusText(t *testing.T) {
	got, err := ParseNetwork([]byte(`{"command_name":"mqtt_control","paras":{"value":"A1"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != KindFreeTextStatus || got.Text != "A1" {
		t.Errorf("got %v, want FREE_TEXT_STATUS(\"A1\")", got)
	}

	// An empty value clears the status text, it is not rejected.
	got, err = ParseNetwork([]byte(`{"command_name":"mqtt_control","paras":{"value":""}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != KindFreeTextStatus || got.Text != "" {
		t.Errorf("got %v, want empty FREE_TEXT_STATUS", got)
	}
}

func TestFromNetworkRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"empty", ``, ErrMalformed},
		{"not json", `garbage`, ErrMalformed},
		{"array", `[1,2,3]`, ErrMalformed},
		{"truncated", `{"command_name":"light_control","paras":{"onoff":"ON"`, ErrMalformed},
		{"no command_name", `{"paras":{"onoff":"ON"}}`, ErrMissingParam},
		{"command_name not string", `{"command_name":7,"paras":{"onoff":"ON"}}`, ErrMalformed},
		{"unknown name", `{"command_name":"door_control","paras":{"onoff":"ON"}}`, ErrUnknownCommand},
		{"missing paras", `{"command_name":"light_control"}`, ErrMissingParam},
		{"null paras", `{"command_name":"light_control","paras":null}`, ErrMissingParam},
		{"garbage paras", `{"command_name":"light_control","paras":"garbage"}`, ErrMalformed},
		{"missing onoff", `{"command_name":"light_control","paras":{}}`, ErrMissingParam},
		{"lowercase onoff", `{"command_name":"light_control","paras":{"onoff":"on"}}`, ErrBadValue},
		{"numeric onoff", `{"command_name":"motor_control","paras":{"onoff":1}}`, ErrMalformed},
		{"status missing value", `{"command_name":"mqtt_control","paras":{"onoff":"ON"}}`, ErrMissingParam},
		{"status numeric value", `{"command_name":"mqtt_control","paras":{"value":12}}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseNetwork([]byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if _, ok := FromNetwork([]byte(tt.payload)); ok {
				t.Errorf("FromNetwork accepted %s as %v", tt.payload, cmd)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{LightOn, "LIGHT_ON"},
		{VoiceQuery(MetricHumidity), "VOICE_QUERY(humidity)"},
		{FreeTextStatus("B2"), `FREE_TEXT_STATUS("B2")`},
		{Command{Kind: Kind(99)}, "Kind(99)"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
