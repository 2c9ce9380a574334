package config

import (
	"time"

	"ticketdash/pkg/contracts"
)

// Application constants
const (
	AppName    = "ticketdash"
	AppVersion = contracts.Version

	// Store backends
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"

	DefaultDatasetTTL     = 2 * time.Hour
	DefaultMaxUploadBytes = 32 << 20
	DefaultPreviewRows    = 500

	// DefaultDataFile is the spreadsheet used when nothing has been uploaded.
	DefaultDataFile = "data.xlsx"
)
