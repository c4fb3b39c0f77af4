package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo       = "repository"
	KeyOwner      = "owner"
	KeySection    = "section"
	KeyPage       = "page"
	KeyDocType    = "doc_type"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyProvider   = "provider"
	KeyModel      = "model"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyWorker     = "worker"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
	KeyURL        = "url"
	KeyResponseSz = "response_size"
	KeyContentLen = "content_length"
	KeyName       = "name"
	KeyCount      = "count"
	KeyRetry      = "retry_count"
	KeySchedule   = "schedule_name"
	KeySubject    = "subject"
	KeyJobID      = "job_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Owner(o string) slog.Attr        { return slog.String(KeyOwner, o) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func DocType(t string) slog.Attr      { return slog.String(KeyDocType, t) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Model(m string) slog.Attr        { return slog.String(KeyModel, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Worker(w string) slog.Attr       { return slog.String(KeyWorker, w) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func ResponseSize(n int) slog.Attr    { return slog.Int(KeyResponseSz, n) }
func ContentLength(n int64) slog.Attr { return slog.Int64(KeyContentLen, n) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func RetryCount(n int) slog.Attr      { return slog.Int(KeyRetry, n) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
