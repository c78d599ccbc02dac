package config

import (
	"fmt"
	"strconv"
	"time"
)

// Configuration keys.
const (
	KeyStateDir         = "state_dir"
	KeyMaxTurns         = "max_turns"
	KeyMaxPhaseCalls    = "max_phase_calls"
	KeyModel            = "model"
	KeyApprovalRequired = "approval_required"
	KeyReasoningBinary  = "reasoning_binary"
	KeyReasoningTimeout = "reasoning_timeout"
	KeyBaseBranch       = "base_branch"
	KeyNotifyWebhook    = "notify_webhook"
	KeyNotifyChannel    = "notify_channel"
	KeyNoColor          = "no_color"
)

// DefaultResolverConfig returns the resolver wiring for aura: AURA_
// environment variables, ~/.config/aura/config.yaml for the user, and
// .aura.yaml at the git root for the project.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       "AURA_",
		GlobalConfigDir: "aura",
		LocalConfigName: ".aura.yaml",
		Defaults: map[string]string{
			KeyStateDir:         ".aura",
			KeyMaxTurns:         "25",
			KeyMaxPhaseCalls:    "50",
			KeyModel:            "",
			KeyApprovalRequired: "true",
			KeyReasoningBinary:  "claude",
			KeyReasoningTimeout: "5m",
			KeyBaseBranch:       "main",
			KeyNotifyWebhook:    "",
			KeyNotifyChannel:    "",
		},
		// Webhook credentials stay out of the shared project file.
		ValidLocalKeys: []string{
			KeyStateDir, KeyMaxTurns, KeyMaxPhaseCalls, KeyModel,
			KeyApprovalRequired, KeyReasoningBinary, KeyReasoningTimeout,
			KeyBaseBranch,
		},
	}
}

// Settings is the typed view of a resolved configuration.
type Settings struct {
	StateDir         string
	MaxTurns         int
	MaxPhaseCalls    int
	Model            string
	ApprovalRequired bool
	ReasoningBinary  string
	ReasoningTimeout time.Duration
	BaseBranch       string
	NotifyWebhook    string
	NotifyChannel    string
	NoColor          bool
}

// Load resolves the full configuration hierarchy and parses it into
// typed settings.
func Load() (*Settings, error) {
	return ParseSettings(NewResolver(DefaultResolverConfig()).Resolve())
}

// ParseSettings converts resolved string values into typed settings.
func ParseSettings(c *Resolved) (*Settings, error) {
	s := &Settings{
		StateDir:        c.Get(KeyStateDir),
		Model:           c.Get(KeyModel),
		ReasoningBinary: c.Get(KeyReasoningBinary),
		BaseBranch:      c.Get(KeyBaseBranch),
		NotifyWebhook:   c.Get(KeyNotifyWebhook),
		NotifyChannel:   c.Get(KeyNotifyChannel),
		NoColor:         c.Get(KeyNoColor) == "true",
	}

	var err error
	if s.MaxTurns, err = parseInt(c, KeyMaxTurns); err != nil {
		return nil, err
	}
	if s.MaxPhaseCalls, err = parseInt(c, KeyMaxPhaseCalls); err != nil {
		return nil, err
	}
	if s.ApprovalRequired, err = parseBool(c, KeyApprovalRequired); err != nil {
		return nil, err
	}
	if v := c.Get(KeyReasoningTimeout); v != "" {
		if s.ReasoningTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("config %s: %w", KeyReasoningTimeout, err)
		}
	}

	if s.MaxTurns <= 0 {
		return nil, fmt.Errorf("config %s: must be positive, got %d", KeyMaxTurns, s.MaxTurns)
	}
	if s.MaxPhaseCalls <= 0 {
		return nil, fmt.Errorf("config %s: must be positive, got %d", KeyMaxPhaseCalls, s.MaxPhaseCalls)
	}
	return s, nil
}

func parseInt(c *Resolved, key string) (int, error) {
	v := c.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return n, nil
}

func parseBool(c *Resolved, key string) (bool, error) {
	v := c.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config %s: %w", key, err)
	}
	return b, nil
}
