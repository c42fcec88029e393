// File: platform/config.go
// Package platform holds the bring-up configuration a transport needs
// before it can attach: the shared-memory region geometry and the set of
// host/client channels to pre-declare. This is everything the spec leaves
// to platform-specific wiring (mailbox registration, IOMMU mapping,
// memory-map discovery) minus the platform-specific parts themselves,
// which stay out of scope.
//
// Grounded on control/config.go's ConfigStore for the snapshot/hot-reload
// contract, and control/platform_linux.go for the probe-registration
// pattern used by RegisterProbes.
// License: Apache-2.0
package platform

import (
	"fmt"

	"github.com/go-rpmsg/rpmsg/control"
)

// Key names one configuration field: the key under which that field is
// stored in the underlying control.ConfigStore.
type Key string

const (
	KeyBufAddr    Key = "buf_addr"
	KeyBufNum     Key = "buf_num"
	KeyBufSz      Key = "buf_sz"
	KeySimBase    Key = "sim_base"
	KeyHCChannels Key = "hc_channels"
)

// ChannelSpec pre-declares a host/client channel the transport should open
// as soon as it attaches, before any name-service traffic arrives.
type ChannelSpec struct {
	Name string
	Src  uint32
	Dst  uint32
}

// Config is the bring-up geometry for one transport instance.
type Config struct {
	BufAddr    uint64
	BufNum     int
	BufSz      int
	SimBase    uint64
	HCChannels []ChannelSpec
}

// Store wraps a control.ConfigStore to hold one transport's Config with
// snapshot reads and reload notification.
type Store struct {
	cs *control.ConfigStore
}

// NewStore creates a Store seeded with initial.
func NewStore(initial Config) *Store {
	s := &Store{cs: control.NewConfigStore()}
	s.cs.SetConfig(toMap(initial))
	return s
}

// Get returns the current configuration snapshot.
func (s *Store) Get() (Config, error) {
	snap := s.cs.GetSnapshot()
	return fromMap(snap)
}

// Update overwrites every field with cfg's values and notifies OnReload
// listeners.
func (s *Store) Update(cfg Config) {
	s.cs.SetConfig(toMap(cfg))
}

// Snapshot returns the raw map form of the current configuration, for
// callers implementing a generic control contract over several stores.
func (s *Store) Snapshot() map[string]any {
	return s.cs.GetSnapshot()
}

// Merge applies raw key/value overrides and notifies OnReload listeners,
// without requiring the caller to construct a full typed Config.
func (s *Store) Merge(overrides map[string]any) {
	s.cs.SetConfig(overrides)
}

// OnReload registers fn to run whenever Update or Merge is called.
func (s *Store) OnReload(fn func()) {
	s.cs.OnReload(fn)
}

// RegisterProbes exposes the current configuration through dp, alongside
// whatever platform-specific probes RegisterPlatformProbes already added.
func (s *Store) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("platform.config", func() any {
		cfg, _ := s.Get()
		return cfg
	})
}

func toMap(cfg Config) map[string]any {
	return map[string]any{
		string(KeyBufAddr):    cfg.BufAddr,
		string(KeyBufNum):     cfg.BufNum,
		string(KeyBufSz):      cfg.BufSz,
		string(KeySimBase):    cfg.SimBase,
		string(KeyHCChannels): cfg.HCChannels,
	}
}

func fromMap(m map[string]any) (Config, error) {
	var cfg Config
	var ok bool

	if cfg.BufAddr, ok = m[string(KeyBufAddr)].(uint64); !ok {
		return Config{}, fmt.Errorf("platform: missing or invalid %s", KeyBufAddr)
	}
	if cfg.BufNum, ok = m[string(KeyBufNum)].(int); !ok {
		return Config{}, fmt.Errorf("platform: missing or invalid %s", KeyBufNum)
	}
	if cfg.BufSz, ok = m[string(KeyBufSz)].(int); !ok {
		return Config{}, fmt.Errorf("platform: missing or invalid %s", KeyBufSz)
	}
	if cfg.SimBase, ok = m[string(KeySimBase)].(uint64); !ok {
		return Config{}, fmt.Errorf("platform: missing or invalid %s", KeySimBase)
	}
	// HCChannels is optional; a fresh transport may have none pre-declared.
	if chans, present := m[string(KeyHCChannels)]; present {
		if cfg.HCChannels, ok = chans.([]ChannelSpec); !ok {
			return Config{}, fmt.Errorf("platform: invalid %s", KeyHCChannels)
		}
	}
	return cfg, nil
}
