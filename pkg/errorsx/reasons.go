package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonToolTimeout     ReasonCode = "tool_timeout"
	ReasonTransportClosed ReasonCode = "transport_closed"
	ReasonRemoteFault     ReasonCode = "remote_fault"
	ReasonToolHandshake   ReasonCode = "tool_handshake"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMStream    ReasonCode = "llm_stream"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"
	ReasonStepLimit    ReasonCode = "step_limit"

	ReasonLedgerEmptyRequest      ReasonCode = "ledger_empty_request"
	ReasonLedgerProductNotFound   ReasonCode = "ledger_product_not_found"
	ReasonLedgerInsufficientStock ReasonCode = "ledger_insufficient_stock"
	ReasonLedgerStore             ReasonCode = "ledger_store"

	ReasonCatalogFetch ReasonCode = "catalog_fetch"
	ReasonConfig       ReasonCode = "config"
)
