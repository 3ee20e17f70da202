// Package config loads and validates application configuration.
//
// Configuration comes from two layers: an optional YAML file (config.yaml,
// or configs/config.yaml) and environment variables with the PROPENSITY
// prefix. Environment variables win. Scoring weights and curve parameters
// are part of the config so the weight table can be retuned without a
// rebuild; validation rejects a table that does not sum to one before any
// scoring happens.
package config
