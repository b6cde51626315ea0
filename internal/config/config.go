package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string
	PublicDir  string

	ProfileAPIBase string

	ReactionTTL      time.Duration
	RoomCodeLen      int
	MandatoryCapture bool

	MsgOverrideDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     ":3000",
		PublicDir:      "public",
		ProfileAPIBase: "https://pay.starmakerstudios.com",
		ReactionTTL:    5 * time.Second,
		RoomCodeLen:    6,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	} else if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.ListenAddr = ":" + port
	}
	if v := strings.TrimSpace(os.Getenv("PUBLIC_DIR")); v != "" {
		cfg.PublicDir = v
	}
	if v := strings.TrimSpace(os.Getenv("PROFILE_API_BASE")); v != "" {
		cfg.ProfileAPIBase = v
	}
	if v := strings.TrimSpace(os.Getenv("REACTION_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ReactionTTL = d
		} else if n, err := strconv.Atoi(v); err == nil && n > 0 { // bare seconds
			cfg.ReactionTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_CODE_LEN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 4 && n <= 16 {
			cfg.RoomCodeLen = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MANDATORY_CAPTURE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MandatoryCapture = b
		}
	}
	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))

	return cfg, nil
}
