// ABOUTME: Package documentation for the config package
// ABOUTME: Explains the YAML configuration format and environment expansion

// Package config loads and validates the startrader-gateway configuration.
//
// Configuration is a single YAML file. Values in the form ${VAR_NAME} are
// expanded from the environment before parsing, which is how the account
// token is normally supplied:
//
//	api:
//	  base_url: https://api.spacetraders.io/v2
//	  account_token: ${SPACETRADERS_API_KEY}
//	rate_limit:
//	  requests: 2
//	  period: 1s
//	tokens:
//	  path: agent_tokens.json
//	database:
//	  path: requests.db
//	server:
//	  http_addr: 127.0.0.1:8490
//	logging:
//	  level: info
//	  format: text
//
// All values read here are immutable for the lifetime of the process.
package config
