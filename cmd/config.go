package main

import (
	"fmt"
	"time"
)

type Config struct {
	BufferSize                int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,default=24h"`
	DialTimeout               time.Duration `env:"DIAL_TIMEOUT,default=10s"`
	SmsTimeout                time.Duration `env:"SMS_TIMEOUT,default=5s"`
	RingTimeout               time.Duration `env:"RING_TIMEOUT,default=30s"`
	GatewayMode               string        `env:"GATEWAY_MODE,default=simulated"`
	CensoredWords             string        `env:"CENSORED_WORDS"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}

// CharacterRune converts the masking character setting into a rune,
// rejecting multi-character values.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
