package models

// Requests for the analysis HTTP endpoints. Defined in domain for reuse by handlers and tests.

type AnalysisRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Short     int    `query:"short" json:"short" default:"20" validate:"gte=1,ltfield=Long"`
	Long      int    `query:"long" json:"long" default:"50" validate:"gte=2,lte=1000"`
	From      string `query:"from" json:"from"`
	To        string `query:"to" json:"to"`
	TF        string `query:"tf" json:"tf" default:"1Day" validate:"oneof=1Day 1Week"`
	Execution string `query:"execution" json:"execution" default:"same_bar" validate:"oneof=same_bar prior_bar"`
	Format    string `query:"format" json:"format" default:"json" validate:"oneof=json csv"`
}
