package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type LoginRequest struct {
	Password string `json:"password"`
}

type ViewRequest struct {
	Filter string `query:"filter" json:"filter" default:"ALL" validate:"oneof=ALL STRONG_BUY BUY NEUTRAL SELL STRONG_SELL"`
	Sort   string `query:"sort" json:"sort" default:"symbol" validate:"oneof=symbol signal score change"`
	Page   int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	Size   int    `query:"size" json:"size" default:"12" validate:"gte=1,lte=100"`
}

type AddSymbolRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=20"`
}

type RemoveSymbolsRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,dive,min=1"`
}
