package fakeapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicspot/internal/domain"
)

// account is a stored user. Field names follow the backend's wire format.
type account struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsAdmin        bool   `json:"isAdmin"`
	Department     string `json:"department,omitempty"`
	Points         int    `json:"points"`
	IsActive       bool   `json:"isActive"`

	hash []byte
}

type notification struct {
	ID        string    `json:"_id"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// users is the in-memory account and notification store
type users struct {
	mu            sync.RWMutex
	byID          map[string]*account
	byEmail       map[string]string
	notifications map[string][]*notification
}

func newUsers() *users {
	return &users{
		byID:          make(map[string]*account),
		byEmail:       make(map[string]string),
		notifications: make(map[string][]*notification),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *users) create(name, email, password string, admin bool) (account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return account{}, err
	}

	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return account{}, domain.ErrUserAlreadyExists
	}

	a := &account{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Email:    key,
		IsAdmin:  admin,
		IsActive: true,
		hash:     hash,
	}
	s.byID[a.ID] = a
	s.byEmail[key] = a.ID
	return *a, nil
}

// authenticate compares the password against the stored hash. An unknown
// email and a wrong password give the same error.
func (s *users) authenticate(email, password string) (account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var a *account
	if ok {
		a = s.byID[id]
	}
	s.mu.RUnlock()

	if a == nil {
		return account{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return account{}, domain.ErrInvalidCredentials
	}
	if !a.IsActive {
		return account{}, domain.ErrUnauthorized
	}
	return *a, nil
}

func (s *users) get(id string) (account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return account{}, false
	}
	return *a, true
}

// update applies a profile edit. An empty username or picture leaves the
// stored value unchanged.
func (s *users) update(id, name, username, picture string) (account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return account{}, domain.ErrUnauthorized
	}
	if username != "" && !strings.EqualFold(username, a.Username) {
		for _, other := range s.byID {
			if other.ID != id && strings.EqualFold(other.Username, username) {
				return account{}, domain.WrapValidationError("username", errAlreadyTaken)
			}
		}
		a.Username = username
	}
	a.Name = strings.TrimSpace(name)
	if picture != "" {
		a.ProfilePicture = picture
	}
	return *a, nil
}

func (s *users) stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members, admins, unread int
	for _, a := range s.byID {
		if a.IsAdmin {
			admins++
		} else {
			members++
		}
	}
	for _, list := range s.notifications {
		for _, n := range list {
			if !n.Read {
				unread++
			}
		}
	}
	return map[string]int{
		"totalUsers":          members,
		"totalAdmins":         admins,
		"unreadNotifications": unread,
		"totalReports":        0,
		"totalCampaigns":      0,
		"totalPosts":          0,
	}
}

// notify queues a notification for one user, or for every non-admin user
// when recipient is empty. It returns the number created.
func (s *users) notify(recipient, message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var targets []string
	if recipient != "" {
		if _, ok := s.byID[recipient]; ok {
			targets = append(targets, recipient)
		}
	} else {
		for id, a := range s.byID {
			if !a.IsAdmin {
				targets = append(targets, id)
			}
		}
	}

	now := time.Now()
	for _, id := range targets {
		s.notifications[id] = append(s.notifications[id], &notification{
			ID:        uuid.NewString(),
			Recipient: id,
			Message:   message,
			CreatedAt: now,
		})
	}
	return len(targets)
}

func (s *users) listNotifications(userID string) []notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notification, 0, len(s.notifications[userID]))
	for _, n := range s.notifications[userID] {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *users) unread(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, item := range s.notifications[userID] {
		if !item.Read {
			n++
		}
	}
	return n
}

func (s *users) markRead(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.notifications[userID] {
		if item.ID == id {
			item.Read = true
			return true
		}
	}
	return false
}
