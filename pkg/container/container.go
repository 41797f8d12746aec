// Package container provides the per-scope object containers used to hand
// contexts and user services to bindings.
package container

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// ErrClosed is returned when resolving from a closed container.
var ErrClosed = errors.New("container is closed")

// NotFoundError reports a type that is neither registered nor constructible.
type NotFoundError struct {
	Type reflect.Type
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no instance registered for %s", e.Type)
}

// Factory builds an instance on first resolve.
type Factory func(c *Container) (any, error)

// Container holds instances keyed by type. Lookups fall back to the parent.
// Pointer-to-struct types that nobody registered are constructed on demand
// and owned by the container that built them.
type Container struct {
	parent *Container
	name   string

	mu        sync.Mutex
	instances map[reflect.Type]any
	factories map[reflect.Type]Factory
	order     []reflect.Type
	owned     []any
	closed    bool
}

// New creates a container. parent may be nil.
func New(name string, parent *Container) *Container {
	return &Container{
		parent:    parent,
		name:      name,
		instances: make(map[reflect.Type]any),
		factories: make(map[reflect.Type]Factory),
	}
}

func (c *Container) Name() string { return c.name }

func (c *Container) Parent() *Container { return c.parent }

// Register stores instance under its dynamic type.
func (c *Container) Register(instance any) {
	c.RegisterAs(reflect.TypeOf(instance), instance)
}

// RegisterAs stores instance under t, typically an interface type.
func (c *Container) RegisterAs(t reflect.Type, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.instances[t]; !ok {
		if _, ok := c.factories[t]; !ok {
			c.order = append(c.order, t)
		}
	}
	c.instances[t] = instance
}

// RegisterFactory defers construction of t until it is first resolved. The
// built instance is owned by this container.
func (c *Container) RegisterFactory(t reflect.Type, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.instances[t]; !ok {
		if _, ok := c.factories[t]; !ok {
			c.order = append(c.order, t)
		}
	}
	c.factories[t] = f
}

// Resolve returns the instance for t from this container or its ancestors.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	v, ok, err := c.lookup(t)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		return c.construct(t)
	}
	return nil, &NotFoundError{Type: t}
}

func (c *Container) lookup(t reflect.Type) (any, bool, error) {
	for cur := c; cur != nil; cur = cur.parent {
		v, ok, err := cur.local(t)
		if err != nil || ok {
			return v, ok, err
		}
	}
	return nil, false, nil
}

func (c *Container) local(t reflect.Type) (any, bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, false, ErrClosed
	}
	if v, ok := c.instances[t]; ok {
		c.mu.Unlock()
		return v, true, nil
	}
	f, ok := c.factories[t]
	c.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	v, err := f(c)
	if err != nil {
		return nil, false, fmt.Errorf("building %s: %w", t, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[t]; ok {
		return existing, true, nil
	}
	c.instances[t] = v
	c.owned = append(c.owned, v)
	return v, true, nil
}

func (c *Container) construct(t reflect.Type) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if v, ok := c.instances[t]; ok {
		return v, nil
	}
	v := reflect.New(t.Elem()).Interface()
	c.instances[t] = v
	c.order = append(c.order, t)
	c.owned = append(c.owned, v)
	return v, nil
}

// ResolveAll returns every instance, here and in the ancestors, assignable
// to t. Unbuilt factories are not included.
func (c *Container) ResolveAll(t reflect.Type) []any {
	var out []any
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		for _, key := range cur.order {
			v, ok := cur.instances[key]
			if !ok || v == nil {
				continue
			}
			if reflect.TypeOf(v).AssignableTo(t) {
				out = append(out, v)
			}
		}
		cur.mu.Unlock()
	}
	return out
}

// Close closes, in reverse order of construction, the io.Closer instances
// this container built. Registered instances belong to the caller.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	owned := c.owned
	c.owned = nil
	c.mu.Unlock()

	var errs []error
	for i := len(owned) - 1; i >= 0; i-- {
		if closer, ok := owned[i].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Resolve is the typed form of Container.Resolve.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	v, err := c.Resolve(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// ResolveAll is the typed form of Container.ResolveAll.
func ResolveAll[T any](c *Container) []T {
	vs := c.ResolveAll(reflect.TypeOf((*T)(nil)).Elem())
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.(T))
	}
	return out
}

// RegisterAs is the typed form of Container.RegisterAs.
func RegisterAs[T any](c *Container, instance T) {
	c.RegisterAs(reflect.TypeOf((*T)(nil)).Elem(), instance)
}
