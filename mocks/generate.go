package mocks

//go:generate mockgen -destination=./mock_marketdata_source.go -package=mocks github.com/xwinwin/SimTradeLab/internal/marketdata Source
