// Package cache provides a weight bounded least recently used cache.
package cache

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrKeyExists  = errors.New("key already exists in cache")
	ErrOverBudget = errors.New("item weight exceeds cache budget")
)

// Cache stores values under string keys, evicting the least recently used
// entries once the summed weight of its entries exceeds the budget.
type Cache[V any] interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int
	Insert(key string, value V, weight int) error
	Retrieve(key string) (V, bool)
	Delete(key string)
	Clear()
}

type entry[V any] struct {
	key    string
	value  V
	weight int
}

type cache[V any] struct {
	log *logrus.Entry

	mu      sync.Mutex
	order   *list.List
	lookup  map[string]*list.Element
	weight  int
	budget  int
	verbose bool
}

// NewCache returns an empty cache with the given weight budget.
func NewCache[V any](budget int) Cache[V] {
	return &cache[V]{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		order:  list.New(),
		lookup: make(map[string]*list.Element),
		budget: budget,
	}
}

func (c *cache[V]) SetVerbose(verbose bool) {
	c.mu.Lock()
	c.verbose = verbose
	c.mu.Unlock()
}

func (c *cache[V]) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache[V]) GetBudget() int {
	return c.budget
}

// Insert adds a new entry as the most recently used one. Existing keys are
// never overwritten.
func (c *cache[V]) Insert(key string, value V, weight int) error {
	if weight > c.budget {
		return ErrOverBudget
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.lookup[key]; found {
		return ErrKeyExists
	}

	c.lookup[key] = c.order.PushFront(&entry[V]{key: key, value: value, weight: weight})
	c.weight += weight

	for c.weight > c.budget {
		oldest := c.order.Back()
		evicted := c.remove(oldest)

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

// Retrieve returns the value for key and marks it as most recently used.
func (c *cache[V]) Retrieve(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.lookup[key]
	if !found {
		var zero V
		return zero, false
	}

	c.order.MoveToFront(element)
	return element.Value.(*entry[V]).value, true
}

func (c *cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.lookup[key]; found {
		c.remove(element)
	}
}

func (c *cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.lookup = make(map[string]*list.Element)
	c.weight = 0
}

func (c *cache[V]) remove(element *list.Element) *entry[V] {
	e := c.order.Remove(element).(*entry[V])
	delete(c.lookup, e.key)
	c.weight -= e.weight
	return e
}
