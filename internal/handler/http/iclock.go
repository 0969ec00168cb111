package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/handler/http/response"
)

const (
	responseOK            = "OK"
	responsePong          = "PONG"
	errMissingSerial      = "ERROR: Missing serial number"
	errInternal           = "ERROR: Internal server error"
	maxDeviceBodyBytes    = 4 << 20
	handshakeStamp        = "9999"
	handshakeTransTimes   = "00:00;14:05"
	handshakeTransFlag    = "1111000000"
	handshakeErrorDelay   = 60
	handshakeDelay        = 30
	handshakeTransIntvl   = 1
	serverVersion         = "1.0"
	pushProtocolVersion   = "2.4.1"
)

// IclockHandler implements the ADMS push protocol surface. Devices
// expect HTTP 200 and a plain-text body on every route, including
// errors.
type IclockHandler struct {
	ingestor   attendance.Ingestor
	devices    device.Repository
	tzOffset   int
	reqTimeout time.Duration
}

func NewIclockHandler(ingestor attendance.Ingestor, devices device.Repository, tzOffset int, reqTimeout time.Duration) *IclockHandler {
	return &IclockHandler{
		ingestor:   ingestor,
		devices:    devices,
		tzOffset:   tzOffset,
		reqTimeout: reqTimeout,
	}
}

func (h *IclockHandler) handshake() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET OPTION FROM: all\n")
	fmt.Fprintf(&b, "Stamp=%s\n", handshakeStamp)
	fmt.Fprintf(&b, "OpStamp=%s\n", handshakeStamp)
	fmt.Fprintf(&b, "ErrorDelay=%d\n", handshakeErrorDelay)
	fmt.Fprintf(&b, "Delay=%d\n", handshakeDelay)
	fmt.Fprintf(&b, "TransTimes=%s\n", handshakeTransTimes)
	fmt.Fprintf(&b, "TransInterval=%d\n", handshakeTransIntvl)
	fmt.Fprintf(&b, "TransFlag=%s\n", handshakeTransFlag)
	fmt.Fprintf(&b, "TimeZone=%d\n", h.tzOffset)
	fmt.Fprintf(&b, "Realtime=1\n")
	fmt.Fprintf(&b, "Encrypt=0")
	return b.String()
}

func (h *IclockHandler) register(r *http.Request, serial string) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	pushVersion := r.URL.Query().Get("pushver")
	if _, err := h.devices.Register(r.Context(), serial, host, pushVersion); err != nil {
		slog.Error("Device registration failed", "serial", serial, "error", err)
	}
}

// GetRequest handles the periodic device poll: refresh registration,
// answer INFO option queries, then hand out the next pending command.
func (h *IclockHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	serial := r.URL.Query().Get("SN")
	if serial == "" {
		response.Plain(w, errMissingSerial)
		return
	}
	h.register(r, serial)

	if info := r.URL.Query().Get("INFO"); info != "" {
		switch {
		case strings.HasPrefix(info, "TimeZone"):
			response.Plain(w, fmt.Sprintf("TimeZone=%d", h.tzOffset))
			return
		case strings.HasPrefix(info, "TransTimes"):
			response.Plain(w, "TransTimes="+handshakeTransTimes)
			return
		case strings.HasPrefix(info, "Stamp"):
			response.Plain(w, "Stamp="+handshakeStamp)
			return
		}
	}

	cmd, err := h.devices.PopPendingCommand(r.Context(), serial, time.Now().UTC())
	if err == nil {
		response.Plain(w, cmd.Body)
		return
	}
	if !errors.Is(err, device.ErrCommandNotFound) {
		slog.Error("Command poll failed", "serial", serial, "error", err)
	}
	response.Plain(w, responseOK)
}

// DeviceCmd is the command-only poll; no handshake block is returned.
func (h *IclockHandler) DeviceCmd(w http.ResponseWriter, r *http.Request) {
	serial := r.URL.Query().Get("SN")
	if serial == "" {
		response.Plain(w, errMissingSerial)
		return
	}
	h.register(r, serial)

	cmd, err := h.devices.PopPendingCommand(r.Context(), serial, time.Now().UTC())
	if err == nil {
		response.Plain(w, cmd.Body)
		return
	}
	if !errors.Is(err, device.ErrCommandNotFound) {
		slog.Error("Command poll failed", "serial", serial, "error", err)
	}
	response.Plain(w, responseOK)
}

// CData receives punch payloads and handshakes.
func (h *IclockHandler) CData(w http.ResponseWriter, r *http.Request) {
	serial := r.URL.Query().Get("SN")
	if serial == "" {
		response.Plain(w, errMissingSerial)
		return
	}
	h.register(r, serial)

	ctx := r.Context()
	if h.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.reqTimeout)
		defer cancel()
	}

	body := h.extractBody(r)
	table := r.URL.Query().Get("table")
	if table == "" {
		table = "ATTLOG"
	}

	// Handshakes and keepalives get a log entry too; their batch is
	// simply empty.
	if _, err := h.ingestor.ProcessBody(ctx, serial, table, []byte(body), requestInfo(r)); err != nil {
		slog.Error("Payload processing failed", "serial", serial, "error", err)
		response.Plain(w, errInternal)
		return
	}

	if strings.TrimSpace(body) == "" && r.URL.Query().Get("options") == "all" {
		response.Plain(w, h.handshake())
		return
	}
	response.Plain(w, responseOK)
}

// requestInfo captures the device-sent request parameters stored on the
// processing-log entry.
func requestInfo(r *http.Request) map[string]string {
	info := map[string]string{"method": r.Method}
	q := r.URL.Query()
	for _, key := range []string{"SN", "options", "language", "pushver", "DeviceType", "PushOptionsFlag"} {
		if v := q.Get(key); v != "" {
			info[key] = v
		}
	}
	return info
}

// extractBody pulls the punch payload from wherever the firmware put
// it: the raw body, the AttLog/OPERLOG form fields, the table=ATTLOG
// pairing, or any form key carrying an ATTLOG/OPERLOG prefix.
func (h *IclockHandler) extractBody(r *http.Request) string {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDeviceBodyBytes))
	if err != nil {
		slog.Error("Body read failed", "error", err)
		return ""
	}
	body := string(raw)

	if strings.Contains(body, "=") && strings.Contains(body, "&") || r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		// Re-parse as a form; fall back to the raw body when it is not
		// actually form-encoded.
		r.Body = io.NopCloser(strings.NewReader(body))
		if err := r.ParseForm(); err == nil && len(r.PostForm) > 0 {
			for _, key := range []string{"AttLog", "OPERLOG"} {
				if v := r.PostForm.Get(key); v != "" {
					return v
				}
			}
			if r.PostForm.Get("table") == "ATTLOG" {
				if v := r.PostForm.Get("AttLog"); v != "" {
					return v
				}
			}
			for key, vals := range r.PostForm {
				if (strings.HasPrefix(key, "ATTLOG") || strings.HasPrefix(key, "OPERLOG")) && len(vals) > 0 && vals[0] != "" {
					return key + ": " + vals[0]
				}
			}
		}
	}
	return body
}

// FData acknowledges template uploads; bodies are logged only.
func (h *IclockHandler) FData(w http.ResponseWriter, r *http.Request) {
	h.acknowledge(w, r, "fdata")
}

// Public acknowledges device announcements.
func (h *IclockHandler) Public(w http.ResponseWriter, r *http.Request) {
	h.acknowledge(w, r, "public")
}

func (h *IclockHandler) acknowledge(w http.ResponseWriter, r *http.Request, route string) {
	serial := r.URL.Query().Get("SN")
	if serial == "" {
		response.Plain(w, errMissingSerial)
		return
	}
	raw, _ := io.ReadAll(io.LimitReader(r.Body, maxDeviceBodyBytes))
	if len(raw) > 0 {
		slog.Info("Device upload acknowledged", "route", route, "serial", serial, "bytes", len(raw))
	}
	response.Plain(w, responseOK)
}

// Ping is the firmware liveness probe.
func (h *IclockHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	response.Plain(w, responsePong)
}

// ServerInfo reports the push server version and clock.
func (h *IclockHandler) ServerInfo(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	response.Plain(w, fmt.Sprintf("ServerVer=%s\nPushVer=%s\nServerTime=%s", serverVersion, pushProtocolVersion, now))
}

