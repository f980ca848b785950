// Package messaging implements the request/response contract the recorder
// answers on its control channel: {"action":"startRecording"} and
// {"action":"stopRecording"}.
package messaging

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"sessionrecorder/backend/pkg/logger"
)

const (
	ActionStartRecording = "startRecording"
	ActionStopRecording  = "stopRecording"
	ActionGetState       = "getState"
)

type Message struct {
	Action string `json:"action"`
}

type Response struct {
	Success      bool   `json:"success"`
	ActionsCount *int   `json:"actionsCount,omitempty"`
	IsRecording  *bool  `json:"isRecording,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Controller is the recording surface a Dispatcher drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (int, error)
	IsRecording() bool
	Len() int
}

type Dispatcher struct {
	ctl Controller
}

func NewDispatcher(ctl Controller) *Dispatcher {
	return &Dispatcher{ctl: ctl}
}

// Parse decodes a raw control message.
func Parse(raw []byte) (Message, error) {
	if !gjson.ValidBytes(raw) {
		return Message{}, fmt.Errorf("malformed message")
	}
	action := gjson.GetBytes(raw, "action")
	if action.Type != gjson.String {
		return Message{}, fmt.Errorf("message has no action")
	}
	return Message{Action: action.String()}, nil
}

// HandleRaw parses and dispatches raw. Decoding failures become an
// unsuccessful response rather than an error.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) Response {
	msg, err := Parse(raw)
	if err != nil {
		return Response{Error: err.Error()}
	}
	return d.Handle(ctx, msg)
}

func (d *Dispatcher) Handle(ctx context.Context, msg Message) Response {
	switch msg.Action {
	case ActionStartRecording:
		if err := d.ctl.Start(ctx); err != nil {
			logger.L().Error("Start recording message failed", zap.Error(err))
			return Response{Error: err.Error()}
		}
		return Response{Success: true}
	case ActionStopRecording:
		count, err := d.ctl.Stop(ctx)
		if err != nil {
			logger.L().Error("Stop recording message failed", zap.Error(err))
			return Response{Error: err.Error(), ActionsCount: &count}
		}
		return Response{Success: true, ActionsCount: &count}
	case ActionGetState:
		active := d.ctl.IsRecording()
		count := d.ctl.Len()
		return Response{Success: true, IsRecording: &active, ActionsCount: &count}
	default:
		return Response{Error: fmt.Sprintf("unknown action %q", msg.Action)}
	}
}
