package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
)

// IContactStore defines the operations on the contact-message log.
type IContactStore interface {
	Create(ctx context.Context, name, email, message string) (*models.ContactMessage, error)
	List(ctx context.Context, onlyUnread bool) ([]models.ContactMessage, error)
	SetRead(ctx context.Context, id string, read bool) (*models.ContactMessage, error)
	Delete(ctx context.Context, id string) (*models.ContactMessage, error)
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// contactStore persists contact messages as a single JSON array file,
// newest first. Every mutation rewrites the whole file under a mutex, so
// the store is safe for a single process but not for concurrent processes.
type contactStore struct {
	mu   sync.Mutex
	path string
}

// NewContactStore creates a file-backed contact store at the given path,
// creating the data directory and an empty log if they do not exist.
func NewContactStore(path string) (IContactStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create contact data directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to initialize contact store file: %w", err)
		}
	}
	return &contactStore{path: path}, nil
}

// Create validates and stores a new message at the head of the log.
func (s *contactStore) Create(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)

	if name == "" || email == "" || message == "" {
		return nil, fmt.Errorf("%w: name, email and message are required", ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	record := models.ContactMessage{
		ID:        s.nextID(records),
		Name:      name,
		Email:     email,
		Message:   message,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	records = append([]models.ContactMessage{record}, records...)
	if err := s.save(records); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns messages in store order (newest first), optionally
// restricted to unread ones.
func (s *contactStore) List(ctx context.Context, onlyUnread bool) ([]models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if !onlyUnread {
		return records, nil
	}
	unread := make([]models.ContactMessage, 0, len(records))
	for _, r := range records {
		if !r.Read {
			unread = append(unread, r)
		}
	}
	return unread, nil
}

// SetRead flips the read flag on a message. Setting the same value twice is
// a no-op beyond the first call.
func (s *contactStore) SetRead(ctx context.Context, id string, read bool) (*models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			records[i].Read = read
			if err := s.save(records); err != nil {
				return nil, err
			}
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("contact message %s: %w", id, ErrNotFound)
}

// Delete removes a message and returns the removed record.
func (s *contactStore) Delete(ctx context.Context, id string) (*models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			removed := records[i]
			records = append(records[:i], records[i+1:]...)
			if err := s.save(records); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, fmt.Errorf("contact message %s: %w", id, ErrNotFound)
}

// nextID derives a millisecond-timestamp ID, bumped past the newest stored
// record so IDs stay unique and ordered even within the same millisecond.
func (s *contactStore) nextID(records []models.ContactMessage) string {
	millis := time.Now().UnixMilli()
	if len(records) > 0 {
		var newest int64
		if _, err := fmt.Sscanf(records[0].ID, "c_%d", &newest); err == nil && millis <= newest {
			millis = newest + 1
		}
	}
	return fmt.Sprintf("c_%d", millis)
}

func (s *contactStore) load() ([]models.ContactMessage, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ContactMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read contact store: %w", err)
	}
	if len(raw) == 0 {
		return []models.ContactMessage{}, nil
	}
	var records []models.ContactMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse contact store: %w", err)
	}
	return records, nil
}

// save rewrites the whole log atomically via a temp file and rename.
func (s *contactStore) save(records []models.ContactMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode contact store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write contact store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace contact store: %w", err)
	}
	return nil
}
