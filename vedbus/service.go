// Package vedbus exposes values as a com.victronenergy service the way
// velib's VeDbusService does: one BusItem object per path, a root object
// aggregating them, and PropertiesChanged signals on every change.
package vedbus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const BusItemInterface = "com.victronenergy.BusItem"

type Service struct {
	conn *dbus.Conn
	name string

	mu    sync.RWMutex
	items map[string]*Item
}

// New connects to the bus and claims name. Venus OS runs its services on
// the system bus; the session bus fallback keeps development on a
// desktop machine working.
func New(name string) (*Service, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		log.Debug().Err(err).Msg("System bus unavailable, trying session bus")
		conn, err = dbus.ConnectSessionBus()
	}
	if err != nil {
		return nil, fmt.Errorf("unable to connect to D-Bus: %w", err)
	}

	service := &Service{
		conn:  conn,
		name:  name,
		items: make(map[string]*Item),
	}

	if err = conn.Export(root{service}, "/", BusItemInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to export root object: %w", err)
	}

	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to request bus name %v: %w", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %v is already taken", name)
	}

	log.Info().Str("name", name).Msg("Registered D-Bus service")

	return service, nil
}

// AddPath exports a BusItem object at path with the given initial value.
func (s *Service) AddPath(path string, initial interface{}, opts ...ItemOption) error {
	if !strings.HasPrefix(path, "/") || path == "/" || strings.HasSuffix(path, "/") {
		return fmt.Errorf("invalid D-Bus path %q", path)
	}

	item := &Item{
		service: s,
		path:    path,
		value:   initial,
		text:    defaultText,
	}

	for _, opt := range opts {
		opt(item)
	}

	s.mu.Lock()
	if _, exists := s.items[path]; exists {
		s.mu.Unlock()
		return fmt.Errorf("path %v already exported", path)
	}
	s.items[path] = item
	s.mu.Unlock()

	if s.conn != nil {
		if err := s.conn.Export(item, dbus.ObjectPath(path), BusItemInterface); err != nil {
			return fmt.Errorf("unable to export %v: %w", path, err)
		}
	}

	return nil
}

// Set updates the value at path and signals PropertiesChanged when it
// actually changed.
func (s *Service) Set(path string, value interface{}) error {
	s.mu.RLock()
	item, ok := s.items[path]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("path %v is not exported", path)
	}

	item.set(value)
	return nil
}

// Value returns the current value at path.
func (s *Service) Value(path string) (interface{}, bool) {
	s.mu.RLock()
	item, ok := s.items[path]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return item.Value(), true
}

func (s *Service) emit(path string, value interface{}, text string) {
	if s.conn == nil {
		return
	}

	err := s.conn.Emit(
		dbus.ObjectPath(path),
		BusItemInterface+".PropertiesChanged",
		map[string]dbus.Variant{
			"Value": dbus.MakeVariant(value),
			"Text":  dbus.MakeVariant(text),
		},
	)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Unable to emit PropertiesChanged")
	}
}

// Close releases the bus name and drops the connection.
func (s *Service) Close() {
	if s.conn == nil {
		return
	}
	if _, err := s.conn.ReleaseName(s.name); err != nil {
		log.Error().Err(err).Msg("Unable to release bus name")
	}
	s.conn.Close()
}

// root answers GetValue and GetItems over all exported paths, which the
// GX device uses to enumerate a service in one round trip.
type root struct {
	service *Service
}

func (r root) GetValue() (map[string]dbus.Variant, *dbus.Error) {
	r.service.mu.RLock()
	defer r.service.mu.RUnlock()

	values := make(map[string]dbus.Variant, len(r.service.items))
	for path, item := range r.service.items {
		values[strings.TrimPrefix(path, "/")] = dbus.MakeVariant(item.Value())
	}
	return values, nil
}

func (r root) GetText() (map[string]dbus.Variant, *dbus.Error) {
	r.service.mu.RLock()
	defer r.service.mu.RUnlock()

	texts := make(map[string]dbus.Variant, len(r.service.items))
	for path, item := range r.service.items {
		texts[strings.TrimPrefix(path, "/")] = dbus.MakeVariant(item.Text())
	}
	return texts, nil
}

func (r root) GetItems() (map[string]map[string]dbus.Variant, *dbus.Error) {
	r.service.mu.RLock()
	defer r.service.mu.RUnlock()

	items := make(map[string]map[string]dbus.Variant, len(r.service.items))
	for path, item := range r.service.items {
		items[path] = map[string]dbus.Variant{
			"Value": dbus.MakeVariant(item.Value()),
			"Text":  dbus.MakeVariant(item.Text()),
		}
	}
	return items, nil
}
