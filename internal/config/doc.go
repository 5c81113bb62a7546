// Package config provides configuration loading and validation for the voice gateway.
// Settings are read from YAML over built-in defaults, then overridden from the
// environment. Twilio credentials are accepted from the environment only.
package config
