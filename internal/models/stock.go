package models

const (
	ShortfallReasonNotFound     = "not found"
	ShortfallReasonInsufficient = "insufficient"
)

type StockCheckItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"required_quantity"`
}

type StockShortfall struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"required_quantity"`
	Available int    `json:"available_quantity"`
	Reason    string `json:"reason"`
}

// StockResult aggregates one verification attempt. Degraded is true when the
// per-item fallback produced it: that path is not transactionally consistent
// with concurrent purchases and is best-effort only.
type StockResult struct {
	AllAvailable bool             `json:"all_available"`
	Degraded     bool             `json:"degraded"`
	Shortfalls   []StockShortfall `json:"shortfalls,omitempty"`
}
