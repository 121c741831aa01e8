package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/secret"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/secrets"
)

type CardRepository struct{ s *Store }

func (r *CardRepository) Create(ctx context.Context, c *models.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.AccountID = cloneRef(c.AccountID)
	r.s.cards[c.ID] = cp
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.AccountID = cloneRef(c.AccountID)
	return &c, nil
}

type PasswordRepository struct{ s *Store }

func (r *PasswordRepository) Create(ctx context.Context, p *models.Password) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.passwords[p.ID] = *p
	return nil
}

func (r *PasswordRepository) GetByID(ctx context.Context, id string) (*models.Password, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.passwords[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

type ArchiveRepository struct{ s *Store }

func (r *ArchiveRepository) Create(ctx context.Context, a *models.Archive) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.archives[a.ID] = *a
	return nil
}

func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*models.Archive, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.archives[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

// SecretRepository walks the encrypted fields of the other in-memory tables.
type SecretRepository struct{ s *Store }

type column struct {
	owner func(id string) (string, bool)
	ids   func() []string
	get   func(id string) secret.Secret
	set   func(id string, v secret.Secret)
}

func (r *SecretRepository) column(t secrets.Target) (column, error) {
	s := r.s
	switch t.String() {
	case "accounts.number":
		return column{
			owner: func(id string) (string, bool) { a, ok := s.accounts[id]; return a.OwnerID, ok },
			ids:   func() []string { return sortedKeys(s.accounts, func(models.Account) bool { return true }) },
			get:   func(id string) secret.Secret { return s.accounts[id].Number },
			set:   func(id string, v secret.Secret) { a := s.accounts[id]; a.Number = v; s.accounts[id] = a },
		}, nil
	case "cards.number", "cards.cvv":
		cvv := t.Column == "cvv"
		return column{
			owner: func(id string) (string, bool) { c, ok := s.cards[id]; return c.OwnerID, ok },
			ids:   func() []string { return sortedKeys(s.cards, func(models.Card) bool { return true }) },
			get: func(id string) secret.Secret {
				if cvv {
					return s.cards[id].CVV
				}
				return s.cards[id].Number
			},
			set: func(id string, v secret.Secret) {
				c := s.cards[id]
				if cvv {
					c.CVV = v
				} else {
					c.Number = v
				}
				s.cards[id] = c
			},
		}, nil
	case "passwords.password":
		return column{
			owner: func(id string) (string, bool) { p, ok := s.passwords[id]; return p.OwnerID, ok },
			ids:   func() []string { return sortedKeys(s.passwords, func(models.Password) bool { return true }) },
			get:   func(id string) secret.Secret { return s.passwords[id].Password },
			set:   func(id string, v secret.Secret) { p := s.passwords[id]; p.Password = v; s.passwords[id] = p },
		}, nil
	case "archives.secret":
		return column{
			owner: func(id string) (string, bool) { a, ok := s.archives[id]; return a.OwnerID, ok },
			ids:   func() []string { return sortedKeys(s.archives, func(models.Archive) bool { return true }) },
			get:   func(id string) secret.Secret { return s.archives[id].Secret },
			set:   func(id string, v secret.Secret) { a := s.archives[id]; a.Secret = v; s.archives[id] = a },
		}, nil
	}
	return column{}, fmt.Errorf("unknown encrypted column %s", t)
}

func (r *SecretRepository) LockBatch(ctx context.Context, target secrets.Target, ownerID, afterID string, limit int) ([]secrets.Row, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("secrets.LockBatch"); err != nil {
		return nil, err
	}
	col, err := r.column(target)
	if err != nil {
		return nil, err
	}
	ids := col.ids()
	sort.Strings(ids)

	var out []secrets.Row
	for _, id := range ids {
		if id <= afterID {
			continue
		}
		if owner, _ := col.owner(id); ownerID != "" && owner != ownerID {
			continue
		}
		v := col.get(id)
		if v.IsZero() {
			continue
		}
		out = append(out, secrets.Row{ID: id, Token: v.Token()})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *SecretRepository) Update(ctx context.Context, target secrets.Target, id, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	col, err := r.column(target)
	if err != nil {
		return err
	}
	if _, ok := col.owner(id); !ok {
		return common.ErrorNotFound
	}
	col.set(id, secret.FromToken(token))
	return nil
}
