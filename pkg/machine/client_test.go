package machine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/laserpanel/pkg/sequence"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeBackend replies with the canned JSON for each path and records requests.
func fakeBackend(t *testing.T, replies map[string]string) (*Client, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.Body))
		}
		reqs = append(reqs, rec)

		reply, ok := replies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":"error","message":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), &reqs
}

func TestJog(t *testing.T) {
	c, reqs := fakeBackend(t, map[string]string{
		"/jog": `{"status":"success","position":120}`,
	})

	pos, err := c.Jog(context.Background(), Forward, 20)
	require.NoError(t, err)
	assert.Equal(t, 120, pos)

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "forward", got.Body["direction"])
	assert.EqualValues(t, 20, got.Body["steps"])
}

func TestJogInvalidDirection(t *testing.T) {
	c, reqs := fakeBackend(t, nil)
	_, err := c.Jog(context.Background(), Direction("left"), 20)
	require.Error(t, err)
	assert.Empty(t, *reqs)
}

func TestPostAlwaysSendsBody(t *testing.T) {
	c, reqs := fakeBackend(t, map[string]string{
		"/home": `{"status":"success","position":0,"simulated":true}`,
	})

	_, err := c.Home(context.Background())
	require.NoError(t, err)
	require.Len(t, *reqs, 1)
	assert.NotNil(t, (*reqs)[0].Body, "POST must carry a JSON object")
}

func TestErrorStatusIsAPIError(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/servo/move_to_a": `{"status":"error","position":"A","angle":0}`,
	})

	_, err := c.ServoMoveToA(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, "/servo/move_to_a", apiErr.Path)
}

func TestNon2xxIsAPIError(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{})

	_, err := c.Sequence(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestTableWarningIsNotError(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/table/forward": `{"status":"warning","state":true,"message":"Cannot move table (limit switch activated)"}`,
	})

	res, err := c.TableForward(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, res.Blocked())
	assert.Contains(t, res.Message, "limit switch")
}

func TestTableStatus(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/table/status": `{"status":"success","table_forward_state":true,"table_backward_state":false,
			"table_front_switch_state":true,"table_back_switch_state":false}`,
	})

	st, err := c.TableStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Moving())
	assert.True(t, st.LimitReached(Forward))
	assert.False(t, st.LimitReached(Backward))
}

func TestGPIOInputsSortedByPin(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/api/gpio/inputs": `{"status":"success","gpio25":true,"gpio5":false,"gpio21":true,"simulated":true}`,
	})

	in, err := c.GPIOInputs(context.Background())
	require.NoError(t, err)
	assert.True(t, in.Simulated)
	require.Len(t, in.Pins, 3)
	assert.Equal(t, []int{5, 21, 25}, []int{in.Pins[0].Number, in.Pins[1].Number, in.Pins[2].Number})
	assert.Equal(t, "Table front limit", in.Pins[1].Label)

	p, ok := in.Pin(25)
	require.True(t, ok)
	assert.True(t, p.Active)
}

func TestSetGPIOOutputUnknownDevice(t *testing.T) {
	c, reqs := fakeBackend(t, nil)
	_, err := c.SetGPIOOutput(context.Background(), "laser", true)
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.Empty(t, *reqs)
}

func TestFanStatusRemaining(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/fan/status": `{"status":"success","fan_state":true,"time_remaining":42.5}`,
	})

	st, err := c.FanStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.On)
	assert.Equal(t, 42500*time.Millisecond, st.Remaining)
}

func TestSaveSequence(t *testing.T) {
	c, reqs := fakeBackend(t, map[string]string{
		"/sequences/save": `{"status":"success","message":"Sequence 'Clean' saved successfully"}`,
	})
	seq := &sequence.Sequence{
		Name:  "Clean",
		Steps: []sequence.Step{{Action: sequence.Fire, Duration: 2000}},
	}

	require.NoError(t, c.SaveSequence(context.Background(), "clean", seq))
	require.Len(t, *reqs, 1)
	assert.Equal(t, "clean", (*reqs)[0].Body["sequence_id"])
	data, ok := (*reqs)[0].Body["sequence_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Clean", data["name"])
}

func TestSaveSequenceRejectsInvalid(t *testing.T) {
	c, reqs := fakeBackend(t, nil)
	err := c.SaveSequence(context.Background(), "x", &sequence.Sequence{Name: "x"})
	assert.ErrorIs(t, err, sequence.ErrInvalid)
	assert.Empty(t, *reqs)
}

func TestSequenceStatus(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/sequences/status": `{"status":"success","sequence_status":{"status":"RUNNING","sequence_name":"Clean",
			"current_step":2,"total_steps":4,"progress_percent":50,"execution_log":["a","b"]}}`,
	})

	st, err := c.SequenceStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sequence.Running, st.State)
	assert.True(t, st.Active())
	assert.Equal(t, "Clean 2/4 (50%)", st.Progress())
}

func TestStatistics(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/statistics/data": `{"status":"success","laser_fire_count":7,"laser_fire_time":3723000,"total_time_formatted":"01:02:03"}`,
	})

	s, err := c.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, s.FireCount)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, s.FireTime())
}

func TestSystemModeUnknown(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/api/system/mode": `{"status":"success","mode":"maintenance","force_hardware":false}`,
	})

	m, err := c.SystemMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeUnknown, m.Mode)
}

func TestRFIDStatusWithoutEnvelope(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/api/rfid/status": `{"authenticated":true,"user":{"user_id":3,"username":"ops","access_level":"operator"},"expiry":1700000000.5}`,
	})

	st, err := c.RFIDStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.User)
	assert.Equal(t, "ops", st.User.Username)
	assert.Equal(t, int64(1700000000), st.ExpiresAt().Unix())
}

func TestTemperatureSensorsPrimaryFirst(t *testing.T) {
	c, _ := fakeBackend(t, map[string]string{
		"/temperature/status": `{"status":"success","primary_sensor":"b","sensors":{
			"a":{"name":"Control","temperature":25.1,"high_limit":50},
			"b":{"name":"Output","temperature":31.0,"high_limit":50}}}`,
	})

	tmp, err := c.Temperature(context.Background())
	require.NoError(t, err)
	sensors := tmp.Sensors()
	require.Len(t, sensors, 2)
	assert.Equal(t, "b", sensors[0].ID)
	assert.Equal(t, "a", sensors[1].ID)
}

func TestContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).StopMotor(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
