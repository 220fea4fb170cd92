package engine

import (
	"fmt"
	"log"
	"sync"

	"github.com/agusx1211/eqlayer/internal/filter"
	"github.com/agusx1211/eqlayer/internal/profile"
)

// Report summarizes what happened to a profile on its way into the engine.
type Report struct {
	Warnings     []profile.Warning
	DesignErrors []*filter.DesignError
	Stages       int
}

// Manager owns the authoritative profile on the control side. It compiles
// every change into a fresh chain and hands it to the engine; it never
// touches a chain after publishing it.
type Manager struct {
	mu      sync.Mutex
	engine  *Engine
	profile *profile.Profile
}

// NewManager returns a manager bound to e with an empty profile.
func NewManager(e *Engine) *Manager {
	return &Manager{engine: e, profile: &profile.Profile{}}
}

// Engine returns the engine the manager currently feeds.
func (m *Manager) Engine() *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine
}

// Profile returns a copy of the active profile.
func (m *Manager) Profile() *profile.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile.Clone()
}

// Text returns the active profile in APO syntax.
func (m *Manager) Text() string {
	return profile.Format(m.Profile())
}

// ApplyText parses text and applies the resulting profile. Malformed lines
// are reported in the result and otherwise ignored.
func (m *Manager) ApplyText(text string) (Report, error) {
	p, warnings := profile.Parse(text)
	for _, w := range warnings {
		log.Printf("Profile warning: %v", w)
	}

	r, err := m.Apply(p)
	r.Warnings = warnings
	return r, err
}

// Apply compiles p for the engine and installs it. On error the previous
// profile and chain stay active.
func (m *Manager) Apply(p *profile.Profile) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = p.Clone()
	r, err := m.install(m.engine, p)
	if err != nil {
		return r, err
	}
	m.profile = p
	return r, nil
}

// SetPreamp replaces the preamp gain of the active profile.
func (m *Manager) SetPreamp(db float64) (Report, error) {
	p := m.Profile()
	p.PreampDB = db
	return m.Apply(p)
}

// Rebind moves the manager to a new engine, typically after the device
// changed sample rate or channel count, and installs the current profile
// compiled from scratch for it.
func (m *Manager) Rebind(e *Engine) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.install(e, m.profile)
	if err != nil {
		return r, err
	}
	m.engine = e
	return r, nil
}

func (m *Manager) install(e *Engine, p *profile.Profile) (Report, error) {
	chain, dropped, err := e.Compile(p)
	if err != nil {
		return Report{}, fmt.Errorf("compile profile: %w", err)
	}
	for _, d := range dropped {
		log.Printf("Dropping filter: %v", d)
	}

	r := Report{DesignErrors: dropped, Stages: chain.NumSections()}
	if err := e.Install(chain); err != nil {
		return r, fmt.Errorf("install chain: %w", err)
	}

	log.Printf("Installed profile: preamp=%.1f dB, %d stages", p.PreampDB, chain.NumSections())
	return r, nil
}
