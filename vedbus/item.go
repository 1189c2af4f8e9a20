package vedbus

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/godbus/dbus/v5"
)

// TextFormatter renders a value for the GetText side of a BusItem, e.g.
// "230.1V" for /Ac/Voltage.
type TextFormatter func(value interface{}) string

// WriteHandler is invoked when a bus client calls SetValue on a
// writeable item. Returning false rejects the write.
type WriteHandler func(path string, value interface{}) bool

type ItemOption func(*Item)

func WithText(format TextFormatter) ItemOption {
	return func(i *Item) { i.text = format }
}

func Writeable(handler WriteHandler) ItemOption {
	return func(i *Item) {
		i.writeable = true
		i.onWrite = handler
	}
}

type Item struct {
	service *Service
	path    string

	mu        sync.Mutex
	value     interface{}
	text      TextFormatter
	writeable bool
	onWrite   WriteHandler
}

func defaultText(value interface{}) string {
	return fmt.Sprintf("%v", value)
}

func (i *Item) Value() interface{} {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.value
}

func (i *Item) Text() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.text(i.value)
}

func (i *Item) set(value interface{}) {
	i.mu.Lock()
	changed := !reflect.DeepEqual(i.value, value)
	i.value = value
	text := i.text(value)
	i.mu.Unlock()

	if changed {
		i.service.emit(i.path, value, text)
	}
}

// GetValue implements com.victronenergy.BusItem.
func (i *Item) GetValue() (dbus.Variant, *dbus.Error) {
	return dbus.MakeVariant(i.Value()), nil
}

// GetText implements com.victronenergy.BusItem.
func (i *Item) GetText() (string, *dbus.Error) {
	return i.Text(), nil
}

// SetValue implements com.victronenergy.BusItem. Returns 0 when the
// write was accepted, matching velib's convention.
func (i *Item) SetValue(value dbus.Variant) (int32, *dbus.Error) {
	if !i.writeable {
		return 1, nil
	}

	unpacked := value.Value()

	if i.onWrite != nil && !i.onWrite(i.path, unpacked) {
		return 1, nil
	}

	i.set(unpacked)
	return 0, nil
}
