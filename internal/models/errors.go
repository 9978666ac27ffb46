package models

import "errors"

var (
	ErrInvalidSymbol        = errors.New("invalid symbol")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
	ErrInvalidCandle        = errors.New("invalid candle (high < low)")
	ErrInvalidVolume        = errors.New("invalid volume")
	ErrInvalidGranularity   = errors.New("invalid candle granularity")
	ErrInvalidMovingAverage = errors.New("invalid moving average")
	ErrSnapshotNotFound     = errors.New("no recommendation snapshot published")
	ErrStaleSnapshot        = errors.New("snapshot version is not newer than the published one")
)
