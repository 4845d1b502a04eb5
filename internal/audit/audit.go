package audit

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/duchm/foliogate/model"
	"github.com/duchm/foliogate/params"
	"github.com/gofiber/fiber/v2"
)

// Action kinds recorded in the audit trail. Closed enumeration; the
// recorder refuses anything else.
const (
	ActionLoginSuccess           = "LOGIN_SUCCESS"
	ActionOTPVerificationSuccess = "OTP_VERIFICATION_SUCCESS"
	ActionOTPVerificationFailure = "OTP_VERIFICATION_FAILURE"
	ActionPasswordChange         = "PASSWORD_CHANGE"
	ActionUsernameChange         = "USERNAME_CHANGE"
	ActionLogout                 = "LOGOUT"
	ActionProfileImageUpload     = "PROFILE_IMAGE_UPLOAD"
	ActionProfileImageDelete     = "PROFILE_IMAGE_DELETE"
	ActionResumeUpload           = "RESUME_UPLOAD"
	ActionResumeDelete           = "RESUME_DELETE"
)

var validActions = map[string]bool{
	ActionLoginSuccess:           true,
	ActionOTPVerificationSuccess: true,
	ActionOTPVerificationFailure: true,
	ActionPasswordChange:         true,
	ActionUsernameChange:         true,
	ActionLogout:                 true,
	ActionProfileImageUpload:     true,
	ActionProfileImageDelete:     true,
	ActionResumeUpload:           true,
	ActionResumeDelete:           true,
}

// RequestInfo is the requester context snapshotted into each entry.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// RequestInfoFromCtx extracts the requester IP, preferring the first hop of
// X-Forwarded-For over the raw connection address, and the user agent,
// defaulting to "unknown".
func RequestInfoFromCtx(ctx *fiber.Ctx) RequestInfo {
	ip := ctx.IP()
	if forwarded := ctx.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	userAgent := ctx.Get(fiber.HeaderUserAgent)
	if userAgent == "" {
		userAgent = "unknown"
	}
	return RequestInfo{IP: ip, UserAgent: userAgent}
}

// Recorder writes audit entries off the request path. Events are handed to
// a background worker over a buffered channel; when the buffer is full the
// event is dropped and counted rather than blocking the caller. Storage
// failures are logged to the operational channel and discarded, never
// returned to the triggering request.
type Recorder struct {
	repo      ActivityRepository
	ch        chan *model.AdminActivity
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case activity := <-r.ch:
			r.persist(activity)
		case <-r.done:
			for {
				select {
				case activity := <-r.ch:
					r.persist(activity)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(activity *model.AdminActivity) {
	if err := r.repo.Create(context.Background(), activity); err != nil {
		slog.Error("Failed to record admin activity", "adminID", activity.AdminID, "action", activity.Action, "error", err)
	}
}

func (r *Recorder) record(adminID uint, action string, metadata map[string]string, req RequestInfo) {
	if adminID == 0 || !validActions[action] {
		slog.Error("Audit record rejected", "adminID", adminID, "action", action)
		return
	}
	activity := &model.AdminActivity{
		AdminID:   adminID,
		Action:    action,
		Metadata:  metadata,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	select {
	case r.ch <- activity:
	case <-r.done:
	default:
		slog.Warn("Audit queue full, dropping event", "action", action)
	}
}

func (r *Recorder) LoginSuccess(adminID uint, req RequestInfo, metadata map[string]string) {
	r.record(adminID, ActionLoginSuccess, metadata, req)
}

func (r *Recorder) OTPVerificationSuccess(adminID uint, req RequestInfo, metadata map[string]string) {
	r.record(adminID, ActionOTPVerificationSuccess, metadata, req)
}

func (r *Recorder) OTPVerificationFailure(adminID uint, req RequestInfo, metadata map[string]string) {
	r.record(adminID, ActionOTPVerificationFailure, metadata, req)
}

func (r *Recorder) PasswordChange(adminID uint, req RequestInfo) {
	r.record(adminID, ActionPasswordChange, nil, req)
}

func (r *Recorder) UsernameChange(adminID uint, req RequestInfo, metadata map[string]string) {
	r.record(adminID, ActionUsernameChange, metadata, req)
}

func (r *Recorder) Logout(adminID uint, req RequestInfo, metadata map[string]string) {
	r.record(adminID, ActionLogout, metadata, req)
}

func (r *Recorder) AssetUpload(adminID uint, action string, req RequestInfo, metadata map[string]string) {
	r.record(adminID, action, metadata, req)
}

// Close drains queued events and stops the worker.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func NewRecorder(repo ActivityRepository) *Recorder {
	r := &Recorder{
		repo: repo,
		ch:   make(chan *model.AdminActivity, params.AuditQueueSize),
		done: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}
