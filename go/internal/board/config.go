package board

import "time"

// Timing and storage settings for a Board.
type Config struct {
	TickInterval    time.Duration `yaml:"tick_interval"`
	PruneInterval   time.Duration `yaml:"prune_interval"`
	PruneDelay      time.Duration `yaml:"prune_delay"`
	RepeatInterval  time.Duration `yaml:"repeat_interval"`
	RepeatWindow    time.Duration `yaml:"repeat_window"`
	AnnouncementTTL time.Duration `yaml:"announcement_ttl"`
	PersistDebounce time.Duration `yaml:"persist_debounce"`
	ToneTimeout     time.Duration `yaml:"tone_timeout"`
	StorageKey      string        `yaml:"storage_key"`
}

// DefaultConfig returns the stock kitchen board timings.
func DefaultConfig() Config {
	return Config{
		TickInterval:    250 * time.Millisecond,
		PruneInterval:   30 * time.Second,
		PruneDelay:      5 * time.Minute,
		RepeatInterval:  15 * time.Second,
		RepeatWindow:    2 * time.Minute,
		AnnouncementTTL: 2 * time.Second,
		PersistDebounce: 250 * time.Millisecond,
		ToneTimeout:     2 * time.Second,
		StorageKey:      StorageKey,
	}
}

// withDefaults fills any zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.PruneInterval <= 0 {
		c.PruneInterval = d.PruneInterval
	}
	if c.PruneDelay <= 0 {
		c.PruneDelay = d.PruneDelay
	}
	if c.RepeatInterval <= 0 {
		c.RepeatInterval = d.RepeatInterval
	}
	if c.RepeatWindow <= 0 {
		c.RepeatWindow = d.RepeatWindow
	}
	if c.AnnouncementTTL <= 0 {
		c.AnnouncementTTL = d.AnnouncementTTL
	}
	if c.PersistDebounce <= 0 {
		c.PersistDebounce = d.PersistDebounce
	}
	if c.ToneTimeout <= 0 {
		c.ToneTimeout = d.ToneTimeout
	}
	if c.StorageKey == "" {
		c.StorageKey = d.StorageKey
	}
	return c
}
