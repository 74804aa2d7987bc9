// Package options is the engine's option registry: the named, typed settings
// a GUI can list and change through the protocol layer.
package options

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Engine option names.
const (
	Threads   = "Threads"
	Hash      = "Hash"
	ClearHash = "Clear Hash"
)

var (
	// ErrUnknownOption is returned when setting an option that was never added.
	ErrUnknownOption = errors.New("options: unknown option")
	// ErrInvalidValue is returned for a value the option cannot take.
	ErrInvalidValue = errors.New("options: invalid value")
)

// Type is the UCI option type. Only the spin and button types are used.
type Type int

const (
	Spin Type = iota
	Button
)

func (t Type) String() string {
	if t == Button {
		return "button"
	}
	return "spin"
}

// Option is one registered setting.
type Option struct {
	Name     string
	Type     Type
	Default  string
	Min, Max int

	value    string
	onChange func(value string) error
}

// Registry holds options in registration order. Lookups ignore case.
type Registry struct {
	mu     sync.RWMutex
	order  []*Option
	byName map[string]*Option
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Option)}
}

func (r *Registry) add(o *Option) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(o.Name)
	if _, ok := r.byName[key]; ok {
		panic("options: duplicate option " + o.Name)
	}
	o.value = o.Default
	r.order = append(r.order, o)
	r.byName[key] = o
}

// AddSpin registers an integer option in [min, max]. onChange may be nil.
func (r *Registry) AddSpin(name string, def, min, max int, onChange func(int) error) {
	o := &Option{Name: name, Type: Spin, Default: strconv.Itoa(def), Min: min, Max: max}
	if onChange != nil {
		o.onChange = func(v string) error {
			n, _ := strconv.Atoi(v)
			return onChange(n)
		}
	}
	r.add(o)
}

// AddButton registers an action without a value.
func (r *Registry) AddButton(name string, onPress func() error) {
	o := &Option{Name: name, Type: Button}
	if onPress != nil {
		o.onChange = func(string) error { return onPress() }
	}
	r.add(o)
}

// Set validates and stores value, then runs the option's hook. If the hook
// fails the previous value is restored and the hook's error returned.
func (r *Registry) Set(name, value string) error {
	r.mu.Lock()
	o, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}

	v, err := o.normalize(value)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	old := o.value
	o.value = v
	hook := o.onChange
	r.mu.Unlock()

	if hook == nil {
		return nil
	}
	if err := hook(v); err != nil {
		r.mu.Lock()
		o.value = old
		r.mu.Unlock()
		return fmt.Errorf("options: %s: %w", o.Name, err)
	}
	return nil
}

func (o *Option) normalize(value string) (string, error) {
	if o.Type == Button {
		return "", nil
	}
	value = strings.TrimSpace(value)
	n, err := strconv.Atoi(value)
	if err != nil || n < o.Min || n > o.Max {
		return "", fmt.Errorf("%w: %s must be an integer in [%d, %d], got %q", ErrInvalidValue, o.Name, o.Min, o.Max, value)
	}
	return strconv.Itoa(n), nil
}

// Value returns the option's current value as text, or "" if unknown.
func (r *Registry) Value(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.byName[strings.ToLower(name)]; ok {
		return o.value
	}
	return ""
}

// Int returns a spin option's value, or 0 if unknown.
func (r *Registry) Int(name string) int {
	n, _ := strconv.Atoi(r.Value(name))
	return n
}

// Threads returns the configured worker count.
func (r *Registry) Threads() int {
	return max(r.Int(Threads), 1)
}

// WriteUCI prints every option as a UCI "option" line, in registration order.
func (r *Registry) WriteUCI(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.order {
		var err error
		if o.Type == Button {
			_, err = fmt.Fprintf(w, "option name %s type button\n", o.Name)
		} else {
			_, err = fmt.Fprintf(w, "option name %s type %s default %s min %d max %d\n", o.Name, o.Type, o.Default, o.Min, o.Max)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
