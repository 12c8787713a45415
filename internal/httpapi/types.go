package httpapi

// StatusResponse is the GET /api/status body.
type StatusResponse struct {
	Symbol  string `json:"symbol"`
	Gateway string `json:"gateway"`
	Uptime  string `json:"uptime"`
}

// AccountResponse is the GET /api/account body. Monetary values are
// decimal strings.
type AccountResponse struct {
	PortfolioValue string `json:"portfolio_value"`
	BuyingPower    string `json:"buying_power"`
}

// PositionJSON is one open position in API responses.
type PositionJSON struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

// PositionsResponse is the GET /api/positions body.
type PositionsResponse struct {
	Positions []PositionJSON `json:"positions"`
}
