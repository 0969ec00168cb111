package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/ingestlog"
	"github.com/annam-hrm/attendance-ingest-go/internal/handler/http/response"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/jwt"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/validator"
)

const operatorTokenTTL = 12 * time.Hour

// UnknownPunchManager is the operator-facing surface for unmapped punches.
type UnknownPunchManager interface {
	List(ctx context.Context, onlyUnprocessed bool, limit, offset int) ([]*device.UnknownPunch, error)
	Assign(ctx context.Context, punchID, employeeID string) error
	Ignore(ctx context.Context, punchID string) error
}

// Replayer re-runs stored payloads.
type Replayer interface {
	Replay(ctx context.Context, entryID string) (*attendance.BatchResult, error)
}

// Recomputer re-derives the figures of a stored attendance record.
type Recomputer interface {
	Recompute(ctx context.Context, attendanceID string) (*attendance.Attendance, error)
}

// OperatorHandler is the JWT-protected back-office API used by HR staff
// for review and correction work.
type OperatorHandler struct {
	attendances attendance.Repository
	unknown     UnknownPunchManager
	replayer    Replayer
	recomputer  Recomputer
	logs        ingestlog.Repository
	devices     device.Repository
	jwtService  jwt.Service
	accessKey   string
}

func NewOperatorHandler(
	attendances attendance.Repository,
	unknown UnknownPunchManager,
	replayer Replayer,
	recomputer Recomputer,
	logs ingestlog.Repository,
	devices device.Repository,
	jwtService jwt.Service,
	accessKey string,
) *OperatorHandler {
	return &OperatorHandler{
		attendances: attendances,
		unknown:     unknown,
		replayer:    replayer,
		recomputer:  recomputer,
		logs:        logs,
		devices:     devices,
		jwtService:  jwtService,
		accessKey:   accessKey,
	}
}

type loginRequest struct {
	OperatorID string `json:"operator_id"`
	AccessKey  string `json:"access_key"`
}

// Login exchanges the shared operator access key for a bearer token.
func (h *OperatorHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if validator.IsEmpty(req.OperatorID) {
		response.BadRequest(w, "operator_id is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(h.accessKey)) != 1 {
		response.Unauthorized(w, "invalid access key")
		return
	}

	token, expiresAt, err := h.jwtService.GenerateOperatorToken(req.OperatorID, operatorTokenTTL)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Token generated", map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *OperatorHandler) ListAttendances(w http.ResponseWriter, r *http.Request) {
	filter := attendance.ListFilter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Limit:      queryInt(r, "limit", 100),
		Offset:     queryInt(r, "offset", 0),
	}
	if from, ok := queryTime(r, "from"); ok {
		filter.FromUTC = &from
	}
	if to, ok := queryTime(r, "to"); ok {
		filter.ToUTC = &to
	}

	records, err := h.attendances.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Attendances retrieved", records)
}

func (h *OperatorHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "invalid attendance id")
		return
	}
	record, err := h.attendances.GetByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Attendance retrieved", record)
}

type dischargeRequest struct {
	IsDischargeShift bool `json:"is_discharge_shift"`
}

// SetDischargeShift flags a record as a discharge shift. The flag is
// operator-only; ingestion never sets it.
func (h *OperatorHandler) SetDischargeShift(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "invalid attendance id")
		return
	}
	var req dischargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.attendances.SetDischargeShift(r.Context(), id, req.IsDischargeShift); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Discharge shift updated", nil)
}

// RecomputeAttendance re-runs derivation for a record, for example after
// the employee's calendar or department was corrected.
func (h *OperatorHandler) RecomputeAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "invalid attendance id")
		return
	}
	record, err := h.recomputer.Recompute(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Attendance recomputed", record)
}

func (h *OperatorHandler) ListUnknownPunches(w http.ResponseWriter, r *http.Request) {
	onlyUnprocessed := r.URL.Query().Get("unprocessed") == "true"
	punches, err := h.unknown.List(r.Context(), onlyUnprocessed, queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Unknown punches retrieved", punches)
}

type assignRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (h *OperatorHandler) AssignUnknownPunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if validator.IsEmpty(req.EmployeeID) {
		response.BadRequest(w, "employee_id is required")
		return
	}
	if err := h.unknown.Assign(r.Context(), id, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Punch assigned", nil)
}

func (h *OperatorHandler) IgnoreUnknownPunch(w http.ResponseWriter, r *http.Request) {
	if err := h.unknown.Ignore(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Punch ignored", nil)
}

func (h *OperatorHandler) ListProcessingLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.logs.List(r.Context(), r.URL.Query().Get("status"), queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Processing logs retrieved", entries)
}

func (h *OperatorHandler) ReplayProcessingLog(w http.ResponseWriter, r *http.Request) {
	result, err := h.replayer.Replay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Entry replayed", result)
}

func (h *OperatorHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, "Devices retrieved", devices)
}

type enqueueCommandRequest struct {
	Action      string     `json:"action,omitempty"`
	Body        string     `json:"body,omitempty"`
	Priority    int        `json:"priority"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (h *OperatorHandler) EnqueueCommand(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	var req enqueueCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	body := req.Body
	if validator.IsEmpty(body) {
		switch req.Action {
		case "restart":
			body = device.CommandBodyRestart
		case "clear_data":
			body = device.CommandBodyClearData
		case "set_time":
			body = device.SetTimeBody(time.Now())
		default:
			response.BadRequest(w, "body or a known action is required")
			return
		}
	}

	cmd := &device.Command{
		DeviceSerial: serial,
		Body:         body,
		Priority:     req.Priority,
		ExpiresAt:    req.ExpiresAt,
	}
	if req.ScheduledAt != nil {
		cmd.ScheduledAt = *req.ScheduledAt
	}
	if err := h.devices.EnqueueCommand(r.Context(), cmd); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Command queued", cmd)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryTime(r *http.Request, key string) (time.Time, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
