package middlewares

// gin.Context keys set by this package.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRole      = "auth.role"
	// CtxJobID is set by handlers that act on a single job so the request
	// log line carries it.
	CtxJobID = "job_id"
)
