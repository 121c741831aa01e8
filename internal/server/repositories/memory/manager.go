package memory

// Repos exposes one repository of each kind over a shared Store.
type Repos struct {
	Store     *Store
	Accounts  *AccountRepository
	Loans     *LoanRepository
	Expenses  *ExpenseRepository
	Revenues  *RevenueRepository
	Transfers *TransferRepository
	Cards     *CardRepository
	Passwords *PasswordRepository
	Archives  *ArchiveRepository
	Secrets   *SecretRepository
}

func NewRepos(s *Store) *Repos {
	return &Repos{
		Store:     s,
		Accounts:  &AccountRepository{s: s},
		Loans:     &LoanRepository{s: s},
		Expenses:  &ExpenseRepository{s: s},
		Revenues:  &RevenueRepository{s: s},
		Transfers: &TransferRepository{s: s},
		Cards:     &CardRepository{s: s},
		Passwords: &PasswordRepository{s: s},
		Archives:  &ArchiveRepository{s: s},
		Secrets:   &SecretRepository{s: s},
	}
}
