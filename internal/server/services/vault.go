package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/secret"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VaultService stores and presents the entities that carry encrypted fields.
//
// The *View methods are the presentation boundary: a value that cannot be
// decrypted is shown masked or empty and the cause is logged. The Reveal*
// methods return the plaintext or the codec error unchanged.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       secret.Codec
	newID       func() string

	accountNumber *secret.Field
	cardNumber    *secret.Field
	cardCVV       *secret.Field
	password      *secret.Field
	archive       *secret.Field
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, codec secret.Codec, logger logging.Logger) *VaultService {
	logger = logger.With("module", "vault")
	return &VaultService{
		db:            db,
		repomanager:   m,
		codec:         codec,
		newID:         uuid.NewString,
		accountNumber: secret.NewField(secret.AccountNumber, codec, logger),
		cardNumber:    secret.NewField(secret.CardNumber, codec, logger),
		cardCVV:       secret.NewField(secret.CardCVV, codec, logger),
		password:      secret.NewField(secret.Password, codec, logger),
		archive:       secret.NewField(secret.ArchiveSecret, codec, logger),
	}
}

type AccountView struct {
	ID      string
	OwnerID string
	Name    string
	Number  string
	Balance decimal.Decimal
}

type CardInput struct {
	OwnerID   string
	Name      string
	AccountID string
	Number    string
	CVV       string
	ExpiresAt *time.Time
}

type CardView struct {
	ID        string
	OwnerID   string
	Name      string
	AccountID string
	Number    string
	CVV       string
	ExpiresAt *time.Time
}

// CardSecret is a revealed card.
type CardSecret struct {
	Number string
	CVV    string
}

type PasswordView struct {
	ID       string
	OwnerID  string
	Title    string
	Login    string
	Password string
}

type ArchiveView struct {
	ID      string
	OwnerID string
	Title   string
	Secret  string
}

// Accounts

func (s *VaultService) CreateAccount(ctx context.Context, ownerID, name, number string) (*models.Account, error) {
	enc, err := s.accountNumber.Set(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("error encrypting account number: %w", err)
	}
	a := &models.Account{ID: s.newID(), OwnerID: ownerID, Name: name, Number: enc}
	if err := s.repomanager.Accounts(s.db).Create(ctx, a); err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return a, nil
}

func (s *VaultService) AccountView(ctx context.Context, id string) (*AccountView, error) {
	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AccountView{
		ID:      a.ID,
		OwnerID: a.OwnerID,
		Name:    a.Name,
		Number:  s.accountNumber.Masked(ctx, a.Number),
		Balance: a.CurrentBalance,
	}, nil
}

func (s *VaultService) RevealAccountNumber(ctx context.Context, id string) (string, error) {
	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Number.Reveal(ctx, s.codec)
}

// Cards

func (s *VaultService) CreateCard(ctx context.Context, in CardInput) (*models.Card, error) {
	number, err := s.cardNumber.Set(ctx, in.Number)
	if err != nil {
		return nil, fmt.Errorf("error encrypting card number: %w", err)
	}
	cvv, err := s.cardCVV.Set(ctx, in.CVV)
	if err != nil {
		return nil, fmt.Errorf("error encrypting card cvv: %w", err)
	}
	c := &models.Card{
		ID:        s.newID(),
		OwnerID:   in.OwnerID,
		Name:      in.Name,
		AccountID: models.Ref(in.AccountID),
		Number:    number,
		CVV:       cvv,
		ExpiresAt: in.ExpiresAt,
	}
	if err := s.repomanager.Cards(s.db).Create(ctx, c); err != nil {
		return nil, fmt.Errorf("error creating card: %w", err)
	}
	return c, nil
}

func (s *VaultService) CardView(ctx context.Context, id string) (*CardView, error) {
	c, err := s.repomanager.Cards(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CardView{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		AccountID: models.Deref(c.AccountID),
		Number:    s.cardNumber.Masked(ctx, c.Number),
		CVV:       s.cardCVV.Masked(ctx, c.CVV),
		ExpiresAt: c.ExpiresAt,
	}, nil
}

// RevealCard decrypts number and CVV. An empty CVV is returned as "".
func (s *VaultService) RevealCard(ctx context.Context, id string) (*CardSecret, error) {
	c, err := s.repomanager.Cards(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	number, err := c.Number.Reveal(ctx, s.codec)
	if err != nil {
		return nil, fmt.Errorf("card number: %w", err)
	}
	out := &CardSecret{Number: number}
	if !c.CVV.IsZero() {
		if out.CVV, err = c.CVV.Reveal(ctx, s.codec); err != nil {
			return nil, fmt.Errorf("card cvv: %w", err)
		}
	}
	return out, nil
}

// Passwords

func (s *VaultService) CreatePassword(ctx context.Context, ownerID, title, login, password string) (*models.Password, error) {
	enc, err := s.password.Set(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("error encrypting password: %w", err)
	}
	p := &models.Password{ID: s.newID(), OwnerID: ownerID, Title: title, Login: login, Password: enc}
	if err := s.repomanager.Passwords(s.db).Create(ctx, p); err != nil {
		return nil, fmt.Errorf("error creating password: %w", err)
	}
	return p, nil
}

func (s *VaultService) PasswordView(ctx context.Context, id string) (*PasswordView, error) {
	p, err := s.repomanager.Passwords(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PasswordView{
		ID:       p.ID,
		OwnerID:  p.OwnerID,
		Title:    p.Title,
		Login:    p.Login,
		Password: s.password.Masked(ctx, p.Password),
	}, nil
}

func (s *VaultService) RevealPassword(ctx context.Context, id string) (string, error) {
	p, err := s.repomanager.Passwords(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Password.Reveal(ctx, s.codec)
}

// Archives

func (s *VaultService) CreateArchive(ctx context.Context, ownerID, title, value string) (*models.Archive, error) {
	enc, err := s.archive.Set(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("error encrypting archive: %w", err)
	}
	a := &models.Archive{ID: s.newID(), OwnerID: ownerID, Title: title, Secret: enc}
	if err := s.repomanager.Archives(s.db).Create(ctx, a); err != nil {
		return nil, fmt.Errorf("error creating archive: %w", err)
	}
	return a, nil
}

func (s *VaultService) ArchiveView(ctx context.Context, id string) (*ArchiveView, error) {
	a, err := s.repomanager.Archives(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ArchiveView{ID: a.ID, OwnerID: a.OwnerID, Title: a.Title, Secret: s.archive.Masked(ctx, a.Secret)}, nil
}

func (s *VaultService) RevealArchive(ctx context.Context, id string) (string, error) {
	a, err := s.repomanager.Archives(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Secret.Reveal(ctx, s.codec)
}
