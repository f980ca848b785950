package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	active  bool
	log     int
	stopErr error
}

func (f *fakeController) Start(context.Context) error {
	if f.active {
		return nil
	}
	f.active = true
	f.log = 1
	return nil
}

func (f *fakeController) Stop(context.Context) (int, error) {
	if !f.active {
		return 0, nil
	}
	f.active = false
	return f.log, f.stopErr
}

func (f *fakeController) IsRecording() bool { return f.active }
func (f *fakeController) Len() int          { return f.log }

func encode(t *testing.T, r Response) string {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	return string(b)
}

func TestStartStopContract(t *testing.T) {
	ctl := &fakeController{}
	d := NewDispatcher(ctl)
	ctx := context.Background()

	assert.JSONEq(t, `{"success":true}`, encode(t, d.HandleRaw(ctx, []byte(`{"action":"startRecording"}`))))
	ctl.log = 4

	assert.JSONEq(t, `{"success":true,"actionsCount":4}`, encode(t, d.HandleRaw(ctx, []byte(`{"action":"stopRecording"}`))))

	// stopping while idle reports zero
	assert.JSONEq(t, `{"success":true,"actionsCount":0}`, encode(t, d.HandleRaw(ctx, []byte(`{"action":"stopRecording"}`))))
}

func TestGetState(t *testing.T) {
	ctl := &fakeController{active: true, log: 3}
	resp := NewDispatcher(ctl).Handle(context.Background(), Message{Action: ActionGetState})

	assert.JSONEq(t, `{"success":true,"isRecording":true,"actionsCount":3}`, encode(t, resp))
}

func TestStopErrorKeepsCount(t *testing.T) {
	ctl := &fakeController{active: true, log: 2, stopErr: errors.New("db down")}
	resp := NewDispatcher(ctl).Handle(context.Background(), Message{Action: ActionStopRecording})

	assert.False(t, resp.Success)
	assert.Equal(t, "db down", resp.Error)
	require.NotNil(t, resp.ActionsCount)
	assert.Equal(t, 2, *resp.ActionsCount)
}

func TestRejectsBadMessages(t *testing.T) {
	d := NewDispatcher(&fakeController{})
	ctx := context.Background()

	for _, raw := range []string{`not json`, `{}`, `{"action":42}`, `{"action":"pause"}`} {
		resp := d.HandleRaw(ctx, []byte(raw))
		assert.False(t, resp.Success, raw)
		assert.NotEmpty(t, resp.Error, raw)
	}
}
