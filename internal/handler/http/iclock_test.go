package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
)

type fakeIngestor struct {
	bodies  []string
	serials []string
	tables  []string
	metas   []map[string]string
	err     error
}

func (f *fakeIngestor) ProcessBody(_ context.Context, serial, table string, body []byte, meta map[string]string) (*attendance.BatchResult, error) {
	f.serials = append(f.serials, serial)
	f.tables = append(f.tables, table)
	f.bodies = append(f.bodies, string(body))
	f.metas = append(f.metas, meta)
	if f.err != nil {
		return nil, f.err
	}
	return &attendance.BatchResult{Total: 1, Stored: 1}, nil
}

func (f *fakeIngestor) ApplyBody(_ context.Context, serial string, body []byte) (*attendance.BatchResult, error) {
	return f.ProcessBody(context.Background(), serial, "", body, nil)
}

type fakeDeviceRepo struct {
	registered []string
	command    *device.Command
}

func (f *fakeDeviceRepo) Register(_ context.Context, serial, ip, pushVersion string) (*device.Device, error) {
	f.registered = append(f.registered, serial)
	return &device.Device{Serial: serial, IPAddress: ip, PushVersion: pushVersion}, nil
}

func (f *fakeDeviceRepo) GetBySerial(_ context.Context, serial string) (*device.Device, error) {
	return nil, device.ErrNotFound
}

func (f *fakeDeviceRepo) List(_ context.Context) ([]*device.Device, error) {
	return nil, nil
}

func (f *fakeDeviceRepo) EnqueueCommand(_ context.Context, cmd *device.Command) error {
	f.command = cmd
	return nil
}

func (f *fakeDeviceRepo) PopPendingCommand(_ context.Context, serial string, _ time.Time) (*device.Command, error) {
	if f.command != nil && f.command.DeviceSerial == serial {
		cmd := f.command
		f.command = nil
		return cmd, nil
	}
	return nil, device.ErrCommandNotFound
}

func newTestIclock() (*IclockHandler, *fakeIngestor, *fakeDeviceRepo) {
	ing := &fakeIngestor{}
	devices := &fakeDeviceRepo{}
	return NewIclockHandler(ing, devices, 7, 30*time.Second), ing, devices
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, target, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGetRequestMissingSerial(t *testing.T) {
	h, _, _ := newTestIclock()
	rec := doRequest(t, h.GetRequest, http.MethodGet, "/iclock/getrequest", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ERROR: Missing serial number", rec.Body.String())
}

func TestGetRequestEmptyQueueOK(t *testing.T) {
	h, _, devices := newTestIclock()
	rec := doRequest(t, h.GetRequest, http.MethodGet, "/iclock/getrequest?SN=DEV001", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, []string{"DEV001"}, devices.registered)
}

func TestGetRequestInfoQueries(t *testing.T) {
	h, _, _ := newTestIclock()

	tests := []struct {
		info string
		want string
	}{
		{"TimeZone", "TimeZone=7"},
		{"TransTimes", "TransTimes=00:00;14:05"},
		{"Stamp", "Stamp=9999"},
		// Unrecognized INFO falls through to the command poll.
		{"Whatever", "OK"},
	}
	for _, tc := range tests {
		rec := doRequest(t, h.GetRequest, http.MethodGet, "/iclock/getrequest?SN=DEV001&INFO="+tc.info, "", "")
		assert.Equal(t, tc.want, rec.Body.String(), "INFO=%s", tc.info)
	}
}

func TestGetRequestDeliversPendingCommand(t *testing.T) {
	h, _, devices := newTestIclock()
	devices.command = &device.Command{DeviceSerial: "DEV001", Body: "C:1:DATA QUERY ATTLOG"}

	rec := doRequest(t, h.GetRequest, http.MethodGet, "/iclock/getrequest?SN=DEV001", "", "")
	assert.Equal(t, "C:1:DATA QUERY ATTLOG", rec.Body.String())

	// Queue drained: next poll gets the plain acknowledgment.
	rec = doRequest(t, h.GetRequest, http.MethodGet, "/iclock/getrequest?SN=DEV001", "", "")
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDeviceCmdEmptyQueue(t *testing.T) {
	h, _, _ := newTestIclock()
	rec := doRequest(t, h.DeviceCmd, http.MethodGet, "/iclock/devicecmd?SN=DEV001", "", "")
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCDataMissingSerial(t *testing.T) {
	h, _, _ := newTestIclock()
	rec := doRequest(t, h.CData, http.MethodPost, "/iclock/cdata", "some body", "")
	assert.Equal(t, "ERROR: Missing serial number", rec.Body.String())
}

func TestCDataEmptyBodyHandshake(t *testing.T) {
	h, _, _ := newTestIclock()
	rec := doRequest(t, h.CData, http.MethodGet, "/iclock/cdata?SN=DEV001&options=all", "", "")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "GET OPTION FROM: all\n"))
	assert.Contains(t, body, "Stamp=9999\n")
	assert.Contains(t, body, "OpStamp=9999\n")
	assert.Contains(t, body, "ErrorDelay=60\n")
	assert.Contains(t, body, "Delay=30\n")
	assert.Contains(t, body, "TransTimes=00:00;14:05\n")
	assert.Contains(t, body, "TransInterval=1\n")
	assert.Contains(t, body, "TransFlag=1111000000\n")
	assert.Contains(t, body, "TimeZone=7\n")
	assert.Contains(t, body, "Realtime=1\n")
	assert.True(t, strings.HasSuffix(body, "Encrypt=0"))
}

func TestCDataEmptyBodyLogsInvocation(t *testing.T) {
	h, ing, _ := newTestIclock()
	rec := doRequest(t, h.CData, http.MethodPost, "/iclock/cdata?SN=DEV001&pushver=2.4.1", "", "")
	assert.Equal(t, "OK", rec.Body.String())

	// Keepalives still get a processing-log entry, with an empty batch.
	require.Len(t, ing.bodies, 1)
	assert.Empty(t, ing.bodies[0])
	require.Len(t, ing.metas, 1)
	assert.Equal(t, "POST", ing.metas[0]["method"])
	assert.Equal(t, "DEV001", ing.metas[0]["SN"])
	assert.Equal(t, "2.4.1", ing.metas[0]["pushver"])
}

func TestCDataRawBody(t *testing.T) {
	h, ing, _ := newTestIclock()
	payload := "1001\t2025-03-03 07:25:00\t1\t1"
	rec := doRequest(t, h.CData, http.MethodPost, "/iclock/cdata?SN=DEV001&table=ATTLOG", payload, "")

	assert.Equal(t, "OK", rec.Body.String())
	require.Len(t, ing.bodies, 1)
	assert.Equal(t, payload, ing.bodies[0])
	assert.Equal(t, []string{"DEV001"}, ing.serials)
	assert.Equal(t, []string{"ATTLOG"}, ing.tables)
}

func TestCDataFormAttLog(t *testing.T) {
	h, ing, _ := newTestIclock()
	payload := "1001\t2025-03-03 07:25:00\t1\t1"
	form := url.Values{"AttLog": {payload}, "table": {"ATTLOG"}}

	rec := doRequest(t, h.CData, http.MethodPost, "/iclock/cdata?SN=DEV001",
		form.Encode(), "application/x-www-form-urlencoded")

	assert.Equal(t, "OK", rec.Body.String())
	require.Len(t, ing.bodies, 1)
	assert.Equal(t, payload, ing.bodies[0])
}

func TestCDataProcessingError(t *testing.T) {
	h, ing, _ := newTestIclock()
	ing.err = assert.AnError

	rec := doRequest(t, h.CData, http.MethodPost, "/iclock/cdata?SN=DEV001", "1001\t2025-03-03 07:25:00\t1\t1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ERROR: Internal server error", rec.Body.String())
}

func TestFDataAndPublicAcknowledge(t *testing.T) {
	h, _, _ := newTestIclock()

	rec := doRequest(t, h.FData, http.MethodPost, "/iclock/fdata?SN=DEV001", "template data", "")
	assert.Equal(t, "OK", rec.Body.String())

	rec = doRequest(t, h.Public, http.MethodPost, "/iclock/public?SN=DEV001", "announcement", "")
	assert.Equal(t, "OK", rec.Body.String())

	rec = doRequest(t, h.FData, http.MethodPost, "/iclock/fdata", "template data", "")
	assert.Equal(t, "ERROR: Missing serial number", rec.Body.String())

	rec = doRequest(t, h.Public, http.MethodPost, "/iclock/public", "announcement", "")
	assert.Equal(t, "ERROR: Missing serial number", rec.Body.String())
}

func TestPing(t *testing.T) {
	h, _, _ := newTestIclock()
	rec := doRequest(t, h.Ping, http.MethodGet, "/iclock/ping", "", "")
	assert.Equal(t, "PONG", rec.Body.String())
}

func TestServerInfo(t *testing.T) {
	h, _, _ := newTestIclock()
	rec := doRequest(t, h.ServerInfo, http.MethodGet, "/iclock/serverinfo", "", "")
	assert.Contains(t, rec.Body.String(), "ServerVer=1.0\n")
	assert.Contains(t, rec.Body.String(), "PushVer=2.4.1\n")
	assert.Contains(t, rec.Body.String(), "ServerTime=")
}
