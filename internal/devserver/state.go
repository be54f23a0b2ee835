package devserver

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errEmailTaken   = errors.New("email already registered")
	errBadLogin     = errors.New("invalid email or password")
	errUserNotFound = errors.New("user not found")
	errItemNotFound = errors.New("item not found")
	errBadReset     = errors.New("invalid or expired token")
)

const resetTokenTTL = time.Hour

type user struct {
	ID           int64
	FirstName    string
	LastName     string
	BirthDate    string
	Gender       string
	Email        string
	PasswordHash []byte
	Goal         string
	HeightWeight string
}

type item struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Time        string    `json:"time"`
	Kind        string    `json:"tipo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	owner       int64
}

type turn struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type resetGrant struct {
	userID  int64
	expires time.Time
}

// state is the whole backend database.
type state struct {
	mu sync.Mutex

	bcryptCost int
	now        func() time.Time

	nextUserID int64
	nextItemID int64
	users      map[int64]*user
	byEmail    map[string]int64
	items      map[int64]*item
	history    map[string][]turn
	resets     map[string]resetGrant
}

func newState(bcryptCost int) *state {
	return &state{
		bcryptCost: bcryptCost,
		now:        time.Now,
		users:      make(map[int64]*user),
		byEmail:    make(map[string]int64),
		items:      make(map[int64]*item),
		history:    make(map[string][]turn),
		resets:     make(map[string]resetGrant),
	}
}

func emailKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *state) register(u user, password string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return nil, errEmailTaken
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.PasswordHash = hash
	s.users[u.ID] = &u
	s.byEmail[key] = u.ID
	return &u, nil
}

func (s *state) authenticate(email, password string) (*user, error) {
	s.mu.Lock()
	id, ok := s.byEmail[emailKey(email)]
	var u user
	if ok {
		u = *s.users[id]
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, errBadLogin
	}
	return &u, nil
}

func (s *state) user(id int64) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user{}, errUserNotFound
	}
	return *u, nil
}

type profilePatch struct {
	Name         string
	Email        string
	BirthDate    string
	Goal         string
	HeightWeight string
}

func (s *state) updateProfile(id int64, p profilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return errUserNotFound
	}
	if p.Email != "" && emailKey(p.Email) != emailKey(u.Email) {
		if _, taken := s.byEmail[emailKey(p.Email)]; taken {
			return errEmailTaken
		}
		delete(s.byEmail, emailKey(u.Email))
		s.byEmail[emailKey(p.Email)] = id
		u.Email = strings.TrimSpace(p.Email)
	}
	if p.Name != "" {
		u.FirstName, u.LastName, _ = strings.Cut(strings.TrimSpace(p.Name), " ")
	}
	if p.BirthDate != "" {
		u.BirthDate = p.BirthDate
	}
	u.Goal = p.Goal
	u.HeightWeight = p.HeightWeight
	return nil
}

func (s *state) deleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return errUserNotFound
	}
	delete(s.byEmail, emailKey(u.Email))
	delete(s.users, id)
	for itemID, it := range s.items {
		if it.owner == id {
			delete(s.items, itemID)
		}
	}
	for tok, g := range s.resets {
		if g.userID == id {
			delete(s.resets, tok)
		}
	}
	return nil
}

func (s *state) listItems(owner int64, kind string) []item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []item{}
	for _, it := range s.items {
		if it.owner == owner && it.Kind == kind {
			out = append(out, *it)
		}
	}
	slices.SortFunc(out, func(a, b item) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *state) addItem(owner int64, it item) item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	now := s.now()
	it.ID = s.nextItemID
	it.owner = owner
	it.CreatedAt, it.UpdatedAt = now, now
	s.items[it.ID] = &it
	return it
}

func (s *state) updateItem(owner, id int64, patch item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.owner != owner {
		return errItemNotFound
	}
	it.Title, it.Description, it.Time = patch.Title, patch.Description, patch.Time
	if patch.Kind != "" {
		it.Kind = patch.Kind
	}
	it.UpdatedAt = s.now()
	return nil
}

func (s *state) deleteItem(owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.owner != owner {
		return errItemNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *state) appendTurns(sessionID string, turns ...turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sessionID] = append(s.history[sessionID], turns...)
}

func (s *state) turns(sessionID string) []turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]turn, len(s.history[sessionID]))
	copy(out, s.history[sessionID])
	return out
}

// issueReset returns a one-hour reset token for email, or errUserNotFound.
func (s *state) issueReset(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return "", errUserNotFound
	}
	tok := uuid.NewString()
	s.resets[tok] = resetGrant{userID: id, expires: s.now().Add(resetTokenTTL)}
	return tok, nil
}

func (s *state) resetPassword(token, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.resets[token]
	if !ok || s.now().After(g.expires) {
		return errBadReset
	}
	delete(s.resets, token)
	u, ok := s.users[g.userID]
	if !ok {
		return errBadReset
	}
	u.PasswordHash = hash
	return nil
}

// lastResetToken is the most recent live token for email. The dev backend
// sends no mail, so it logs tokens and tests read them from here.
func (s *state) lastResetToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return "", false
	}
	var (
		best    string
		bestExp time.Time
	)
	for tok, g := range s.resets {
		if g.userID == id && g.expires.After(bestExp) {
			best, bestExp = tok, g.expires
		}
	}
	return best, best != ""
}
