package alpaca

import (
	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type alpacaApi interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetLatestQuote(symbol string, req marketdata.GetLatestQuoteRequest) (*marketdata.Quote, error)
	GetAccount() (*alpaca.Account, error)
}

type restApi struct {
	trading *alpaca.Client
	data    *marketdata.Client
}

func newRestApi(apiKey, secret, baseUrl, dataUrl string) *restApi {
	return &restApi{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			BaseURL:   baseUrl,
			APIKey:    apiKey,
			APISecret: secret,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			BaseURL:   dataUrl,
			APIKey:    apiKey,
			APISecret: secret,
		}),
	}
}

func (a *restApi) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	return a.data.GetBars(symbol, req)
}

func (a *restApi) GetLatestQuote(symbol string, req marketdata.GetLatestQuoteRequest) (*marketdata.Quote, error) {
	return a.data.GetLatestQuote(symbol, req)
}

func (a *restApi) GetAccount() (*alpaca.Account, error) {
	return a.trading.GetAccount()
}
