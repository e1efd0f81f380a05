package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// memStore is an in-memory CredentialWriter used by the package tests.
type memStore struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]Credential
	reads   int
	failErr error
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]Credential)}
}

func (m *memStore) FindCredentialByID(_ context.Context, id string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failErr != nil {
		return Credential{}, m.failErr
	}
	c, ok := m.byID[id]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return c, nil
}

func (m *memStore) FindCredentialByLoginName(_ context.Context, name string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	for _, c := range m.byID {
		if c.LoginName == name {
			return c, nil
		}
	}
	return Credential{}, ErrNotFound
}

func (m *memStore) CreateCredential(_ context.Context, c Credential) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.LoginName == c.LoginName {
			return Credential{}, ErrConflict
		}
	}
	m.seq++
	c.ID = "cred-" + strconv.Itoa(m.seq)
	m.byID[c.ID] = c
	return c, nil
}

func (m *memStore) UpdateCredential(_ context.Context, id string, upd CredentialUpdate) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return Credential{}, ErrNotFound
	}
	if upd.LoginName != nil {
		c.LoginName = *upd.LoginName
	}
	if upd.PasswordHash != nil {
		c.PasswordHash = *upd.PasswordHash
	}
	if upd.OrganizationID != nil {
		c.OrganizationID = *upd.OrganizationID
	}
	m.byID[id] = c
	return c, nil
}

func (m *memStore) SetCredentialRole(_ context.Context, id string, role Role) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return Credential{}, ErrNotFound
	}
	c.Role = role
	m.byID[id] = c
	return c, nil
}

func (m *memStore) DeleteCredential(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memStore) ListCredentials(context.Context, int, int) ([]Credential, error) {
	return nil, errors.New("not implemented")
}

func (m *memStore) seed(t interface{ Fatalf(string, ...any) }, name, password string, role Role, org string) Credential {
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	c, err := m.CreateCredential(context.Background(), Credential{LoginName: name, PasswordHash: hash, Role: role, OrganizationID: org})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return c
}
