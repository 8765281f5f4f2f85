package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/imagehub/backend/internal/models"
)

type memCatalog struct {
	mu     sync.Mutex
	images map[string]models.Image
	nextID int

	insertErr error
	listErr   error
	getErr    error
	deleteErr error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{images: map[string]models.Image{}}
}

func (c *memCatalog) Insert(_ context.Context, img *models.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.insertErr != nil {
		return c.insertErr
	}
	c.nextID++
	img.ID = fmt.Sprintf("img%d", c.nextID)
	c.images[img.ID] = *img
	return nil
}

func (c *memCatalog) List(context.Context) ([]models.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []models.Image
	for _, img := range c.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memCatalog) GetByID(_ context.Context, id string) (*models.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	img, ok := c.images[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &img, nil
}

func (c *memCatalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	if _, ok := c.images[id]; !ok {
		return models.ErrNotFound
	}
	delete(c.images, id)
	return nil
}

func (c *memCatalog) put(img models.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[img.ID] = img
}

func (c *memCatalog) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.images[id]
	return ok
}

type storedFile struct {
	name        string
	data        []byte
	contentType string
}

type fakeMedia struct {
	mu      sync.Mutex
	objects map[string]storedFile
	next    int

	uploadErr error
	removeErr error
	removed   []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: map[string]storedFile{}}
}

func (m *fakeMedia) Upload(_ context.Context, filename string, r io.Reader, size int64, contentType string) (models.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return models.StoredObject{}, m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.StoredObject{}, err
	}
	if int64(len(data)) != size {
		return models.StoredObject{}, errors.New("size mismatch")
	}
	m.next++
	key := fmt.Sprintf("images/obj%d", m.next)
	m.objects[key] = storedFile{name: filename, data: data, contentType: contentType}
	return models.StoredObject{URL: "https://cdn.example/" + key, PublicID: key}, nil
}

func (m *fakeMedia) Remove(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, publicID)
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.objects, publicID)
	return nil
}

func (m *fakeMedia) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *fakeMedia) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type memLedger struct {
	mu      sync.Mutex
	objects []string
	images  []string
	addErr  error
	popErr  error
}

func (l *memLedger) AddObject(_ context.Context, publicID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return l.addErr
	}
	l.objects = append(l.objects, publicID)
	return nil
}

func (l *memLedger) AddImage(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return l.addErr
	}
	l.images = append(l.images, id)
	return nil
}

func (l *memLedger) PopObject(context.Context) (string, bool, error) {
	return l.pop(&l.objects)
}

func (l *memLedger) PopImage(context.Context) (string, bool, error) {
	return l.pop(&l.images)
}

func (l *memLedger) pop(set *[]string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.popErr != nil {
		return "", false, l.popErr
	}
	if len(*set) == 0 {
		return "", false, nil
	}
	v := (*set)[0]
	*set = (*set)[1:]
	return v, true, nil
}
