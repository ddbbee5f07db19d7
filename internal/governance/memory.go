package governance

import (
	"context"
	"sync"
)

// MemoryMap is an in-memory Map safe for concurrent use
type MemoryMap[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewMemoryMap creates an empty in-memory map
func NewMemoryMap[V any]() *MemoryMap[V] {
	return &MemoryMap[V]{
		entries: make(map[string]V),
	}
}

// Has implements Map
func (m *MemoryMap[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[key]
	return ok, nil
}

// Get implements Map
func (m *MemoryMap[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores a value under key
func (m *MemoryMap[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Delete removes key
func (m *MemoryMap[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len returns the number of entries
func (m *MemoryMap[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MemoryStore is an in-memory Store for tests and local runs
type MemoryStore struct {
	certs *MemoryMap[[]byte]
	info  *MemoryMap[MemberInfo]
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		certs: NewMemoryMap[[]byte](),
		info:  NewMemoryMap[MemberInfo](),
	}
}

// AddCertificate records a certificate for a member
func (s *MemoryStore) AddCertificate(memberID string, cert []byte) *MemoryStore {
	s.certs.Set(memberID, cert)
	return s
}

// SetStatus records a status for a member
func (s *MemoryStore) SetStatus(memberID string, status MemberStatus) *MemoryStore {
	s.info.Set(memberID, MemberInfo{Status: status})
	return s
}

// AddMember records both a certificate and a status for a member
func (s *MemoryStore) AddMember(memberID string, cert []byte, status MemberStatus) *MemoryStore {
	return s.AddCertificate(memberID, cert).SetStatus(memberID, status)
}

// MemberCerts implements Store
func (s *MemoryStore) MemberCerts() Map[[]byte] {
	return s.certs
}

// MemberInfo implements Store
func (s *MemoryStore) MemberInfo() Map[MemberInfo] {
	return s.info
}
