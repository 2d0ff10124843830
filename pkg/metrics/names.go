package metrics

// Event names recorded by the assistant gateway.
const (
	EventTurnStarted     = "turn_started"
	EventTurnCompleted   = "turn_completed"
	EventModelFirstToken = "model_first_token"
	EventToolInvoked     = "tool_invoked"
	EventToolFailed      = "tool_failed"
	EventStepLimit       = "step_limit"
	EventRateLimit       = "rate_limit"

	EventBreakerOpen   = "breaker_open"
	EventBreakerClose  = "breaker_close"
	EventBreakerDenied = "breaker_denied"

	EventPurchaseCommitted = "purchase_committed"
	EventPurchaseRejected  = "purchase_rejected"
)
