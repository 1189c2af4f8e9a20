package openwb

import (
	"sync"
	"time"

	"rbf.dev/openwb_dbus_bridge/driver"
)

// Telemetry is the last known state of the chargepoint, assembled from
// the individual get/ topics.
type Telemetry struct {
	AcPower       float64
	PhasePower    [3]float64
	Voltage       float64
	EnergyForward float64
	Current       float64
	PVPower       float64
	Plugged       bool
	Charging      bool
	Mode          int
	Status        driver.Status
}

type Manager struct {
	mu        sync.RWMutex
	telemetry Telemetry
	seen      bool
	lastSeen  time.Time

	messagesHandled uint64
	decodeErrors    uint64
}

func NewManager() *Manager {
	// Start the inactivity clock now, not at the zero time, so the
	// watchdog grants a full timeout before the first message.
	return &Manager{lastSeen: time.Now()}
}

// Snapshot returns a copy of the current telemetry. The second return
// value is false until the first message was decoded successfully.
func (m *Manager) Snapshot() (Telemetry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.telemetry, m.seen
}

// LastSeen is the arrival time of the most recent MQTT message,
// successful or not. The watchdog exits when this goes stale.
func (m *Manager) LastSeen() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastSeen
}

// Counts returns how many messages were handled and how many failed to
// decode, for the Prometheus collector.
func (m *Manager) Counts() (handled, errors uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.messagesHandled, m.decodeErrors
}

// update runs fn against the telemetry under the write lock and stamps
// the bookkeeping counters.
func (m *Manager) update(fn func(*Telemetry)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.telemetry)
	m.telemetry.Status = deriveStatus(&m.telemetry)
	m.seen = true
	m.lastSeen = time.Now()
	m.messagesHandled++
}

// touch records broker activity for keys the bridge does not map.
// Any chargepoint traffic keeps the watchdog happy.
func (m *Manager) touch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSeen = time.Now()
}

func (m *Manager) fail() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSeen = time.Now()
	m.decodeErrors++
}

// deriveStatus collapses the plug and charge flags onto the Victron
// /Status values.
func deriveStatus(t *Telemetry) driver.Status {
	switch {
	case t.Charging:
		return driver.StatusCharging
	case t.Plugged:
		return driver.StatusConnected
	default:
		return driver.StatusDisconnected
	}
}
