package cache

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// TTLs padrão para as respostas de métricas.
const (
	TTLShort    = 30 * time.Second
	TTLMedium   = 2 * time.Minute
	TTLLong     = 5 * time.Minute
	TTLVeryLong = 15 * time.Minute
)

// Intervalo do janitor de limpeza, independente do padrão de acesso.
const cleanupInterval = 5 * time.Minute

// Item represents a cached item with expiration
type Item struct {
	Value      interface{}
	Expiration int64
}

// Cache é um cache em memória com TTL por entrada. É otimização pura
// sobre dados re-deriváveis: nada persiste, o estado se perde no
// restart. Misses concorrentes para a mesma chave disparam trabalho
// upstream duplicado (sem proteção de stampede).
type Cache struct {
	items map[string]Item
	mu    sync.RWMutex
}

// New creates a new cache instance
func New() *Cache {
	cache := &Cache{
		items: make(map[string]Item),
	}

	// Janitor em background removendo entradas expiradas
	go func() {
		for {
			time.Sleep(cleanupInterval)
			cache.DeleteExpired()
		}
	}()

	return cache
}

// Set adds an item to the cache with the given expiration duration
func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := time.Now().Add(duration).UnixNano()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
}

// Get retrieves an item from the cache
// Returns the item and a boolean indicating if the item was found
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	// Check if the item has expired
	if time.Now().UnixNano() > item.Expiration {
		return nil, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// DeleteExpired removes all expired items from the cache
func (c *Cache) DeleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if now > v.Expiration {
			delete(c.items, k)
		}
	}
}

// InvalidatePattern remove todas as entradas cuja chave satisfaz o
// predicado. Usado para derrubar as métricas de um tenant após escrita.
func (c *Cache) InvalidatePattern(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.items {
		if match(k) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Item)
}

// Stats retorna o tamanho atual e as chaves presentes.
func (c *Cache) Stats() (int, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return len(c.items), keys
}

// GenerateKey deriva a chave determinística de (tenant, endpoint,
// parâmetros) para que combinações diferentes de filtro não colidam.
func GenerateKey(userID, endpoint string, params interface{}) string {
	var paramString string
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			paramString = string(b)
		}
	}
	return strings.Join([]string{userID, endpoint, paramString}, ":")
}
