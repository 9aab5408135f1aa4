// Package config provides configuration management for tlc-downloader.
//
// This package handles:
//   - Loading and saving settings from YAML files
//   - Default configuration values
//   - Environment overrides with the TLC_ prefix
//   - Conversion to download and HTTP options for other packages
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Downloads yellow taxi data to ./data
//	// Five concurrent transfers, three attempts per request
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/settings.yaml")
//	if err != nil {
//	    // Missing files are not an error; defaults are used
//	}
//	if err := settings.ApplyEnv(); err != nil {
//	    // TLC_CONCURRENCY=abc and similar
//	}
//
// A settings file looks like:
//
//	output: /srv/tlc
//	concurrency: 8
//	type: green
//	stall_timeout: 2m
//	retry:
//	  attempts: 5
//	  backoff: 1s
//	log_level: debug
//
// # Saving Settings
//
//	settings.Output = "/srv/tlc"
//	err := settings.Save(config.DefaultPath())
package config
