// Package config provides centralized configuration management for the ticket
// dashboard. It loads settings from environment variables and an optional YAML
// file, validates them, and exposes a typed Config.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (config.yaml, configs/config.yaml or TICKETDASH_CONFIG_FILE)
//  3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern TICKETDASH_<SECTION>_<FIELD>:
//
//	TICKETDASH_SERVER_PORT=8080
//	TICKETDASH_LOGGING_LEVEL=debug
//	TICKETDASH_STORE_BACKEND=redis
//	TICKETDASH_STORE_REDIS_ADDR=localhost:6379
//	TICKETDASH_UPLOAD_MAX_BYTES=33554432
//	TICKETDASH_DASHBOARD_DEFAULT_DATA_FILE=data.xlsx
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := &http.Server{Addr: cfg.Addr()}
package config
