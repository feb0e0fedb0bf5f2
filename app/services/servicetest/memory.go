// Package servicetest provides in-memory stores and an in-memory disk for
// tests of services and HTTP routes. Setting Err on a store makes every
// call fail with it.
package servicetest

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
)

// Users is an in-memory user store keyed by email.
type Users struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	Err     error
}

func NewUsers() *Users { return &Users{byEmail: map[string]models.User{}} }

// Add stores u as is.
func (m *Users) Add(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.byEmail[u.Email] = u
}

func (m *Users) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

func (m *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (m *Users) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return repositories.ErrDuplicate
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	m.byEmail[u.Email] = *u
	return nil
}

// Products is an in-memory catalog that lists in insertion order.
type Products struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]models.Product
	order   []primitive.ObjectID
	lookups int
	Err     error
}

func NewProducts(ps ...models.Product) *Products {
	m := &Products{byID: map[primitive.ObjectID]models.Product{}}
	for _, p := range ps {
		m.Add(p)
	}
	return m
}

// Add stores p, assigning an id when it has none, and returns the id.
func (m *Products) Add(p models.Product) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := m.byID[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	p.Normalize()
	m.byID[p.ID] = p
	return p.ID
}

// Remove deletes id without going through the store API.
func (m *Products) Remove(id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (m *Products) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Lookups counts FindByID calls.
func (m *Products) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

func (m *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *Products) FindMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *Products) List(_ context.Context, category string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.Product{}
	for _, id := range m.order {
		p, ok := m.byID[id]
		if !ok || (category != "" && p.Category != category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Products) Create(_ context.Context, p *models.Product) error {
	if m.Err != nil {
		return m.Err
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Normalize()
	m.Add(*p)
	return nil
}

func (m *Products) Update(_ context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != "" {
		p.Description = patch.Description
	}
	if patch.Category != "" {
		p.Category = patch.Category
	}
	if patch.Images != nil {
		p.Images = patch.Images
	}
	p.UpdatedAt = time.Now().UTC()
	p.Normalize()
	m.byID[id] = p
	return &p, nil
}

func (m *Products) AddImage(_ context.Context, id primitive.ObjectID, url string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Images = append(append([]string{}, p.Images...), url)
	m.byID[id] = p
	return &p, nil
}

func (m *Products) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.byID)), nil
}

func (m *Products) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// Orders is an in-memory order store. Its clock advances one second per
// insert so creation times are strictly increasing.
type Orders struct {
	mu     sync.Mutex
	orders []models.Order
	clock  time.Time
	Err    error
}

func NewOrders() *Orders {
	return &Orders{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *Orders) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *Orders) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.clock = m.clock.Add(time.Second)
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = m.clock, m.clock
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *Orders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].User == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, o := range m.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Disk is an in-memory storage.Disk.
type Disk struct {
	mu      sync.Mutex
	objects map[string]string
	FailPut bool
}

func NewDisk() *Disk { return &Disk{objects: map[string]string{}} }

func (d *Disk) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.objects)
}

func (d *Disk) Put(_ context.Context, path string, r io.Reader, _ string) error {
	if d.FailPut {
		return errors.New("servicetest: put failed")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[path] = string(b)
	return nil
}

func (d *Disk) Exists(_ context.Context, path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.objects[path]
	return ok
}

func (d *Disk) Delete(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.objects, path)
	return nil
}

func (d *Disk) URL(path string) string { return "http://cdn.test/" + path }
