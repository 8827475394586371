// Package mqtt connects the device to the IoTDA cloud over MQTT with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/smart-home/internal/telemetry"
)

// Topic templates; %s is the device ID.
const (
	topicReport   = "$oc/devices/%s/sys/properties/report"
	topicCommands = "$oc/devices/%s/sys/commands/#"
	topicResponse = "$oc/devices/%s/sys/commands/response/request_id=%s"
	topicSystem   = "$oc/devices/%s/user/system"
)

// ReportTopic is where property reports are published.
func ReportTopic(deviceID string) string {
	return fmt.Sprintf(topicReport, deviceID)
}

// CommandTopic is the filter for platform-issued commands.
func CommandTopic(deviceID string) string {
	return fmt.Sprintf(topicCommands, deviceID)
}

// ResponseTopic is where the acknowledgement for requestID goes.
func ResponseTopic(deviceID, requestID string) string {
	return fmt.Sprintf(topicResponse, deviceID, requestID)
}

// SystemTopic carries lifecycle events.
func SystemTopic(deviceID string) string {
	return fmt.Sprintf(topicSystem, deviceID)
}

const requestIDKey = "request_id="

// RequestID extracts the request id from a command topic such as
// $oc/devices/{id}/sys/commands/request_id={rid}.
func RequestID(topic string) (string, bool) {
	i := strings.LastIndex(topic, requestIDKey)
	if i < 0 {
		return "", false
	}
	rid := topic[i+len(requestIDKey):]
	if j := strings.IndexByte(rid, '/'); j >= 0 {
		rid = rid[:j]
	}
	if rid == "" {
		return "", false
	}
	return rid, true
}

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// Publish sends a property report to the platform.
	// Returns error if publishing fails (should not crash the process).
	Publish(report telemetry.Report) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// CommandResponse acknowledges a platform command.
type CommandResponse struct {
	ResultCode   int               `json:"result_code"`
	ResponseName string            `json:"response_name"`
	Paras        map[string]string `json:"paras"`
}

// FormatCommandResponse builds the acknowledgement body. The platform
// expects receipt to be confirmed whether or not the command was usable.
func FormatCommandResponse() []byte {
	data, _ := json.Marshal(CommandResponse{
		ResultCode:   0,
		ResponseName: "COMMAND_RESPONSE",
		Paras:        map[string]string{"result": "success"},
	})
	return data
}
