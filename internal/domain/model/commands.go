package model

// Command is an intent addressed to one aggregate.
type Command interface {
	CommandName() string
	// TargetID is the id of the aggregate stream the command mutates.
	TargetID() string
	Correlation() string
}

// CommandMeta carries the correlation id every command travels with.
type CommandMeta struct {
	CorrelationID string `json:"correlation_id"`
}

func (m CommandMeta) Correlation() string { return m.CorrelationID }

type CreateAccount struct {
	CommandMeta
	AccountID string
	FirstName string
	LastName  string
	Email     string
}

func (c CreateAccount) CommandName() string { return "CreateAccount" }
func (c CreateAccount) TargetID() string    { return c.AccountID }

type DeleteAccount struct {
	CommandMeta
	AccountID string
}

func (c DeleteAccount) CommandName() string { return "DeleteAccount" }
func (c DeleteAccount) TargetID() string    { return c.AccountID }

type RollbackAccountCreation struct {
	CommandMeta
	AccountID string
}

func (c RollbackAccountCreation) CommandName() string { return "RollbackAccountCreation" }
func (c RollbackAccountCreation) TargetID() string    { return c.AccountID }

type CreateBusiness struct {
	CommandMeta
	BusinessID string
	Name       string
}

func (c CreateBusiness) CommandName() string { return "CreateBusiness" }
func (c CreateBusiness) TargetID() string    { return c.BusinessID }

type DeleteBusiness struct {
	CommandMeta
	BusinessID string
}

func (c DeleteBusiness) CommandName() string { return "DeleteBusiness" }
func (c DeleteBusiness) TargetID() string    { return c.BusinessID }

type CreateLoyaltyBank struct {
	CommandMeta
	LoyaltyBankID string
	AccountID     string
	BusinessID    string
}

func (c CreateLoyaltyBank) CommandName() string { return "CreateLoyaltyBank" }
func (c CreateLoyaltyBank) TargetID() string    { return c.LoyaltyBankID }

type CreatePendingTransaction struct {
	CommandMeta
	LoyaltyBankID string
	Points        int64
}

func (c CreatePendingTransaction) CommandName() string { return "CreatePendingTransaction" }
func (c CreatePendingTransaction) TargetID() string    { return c.LoyaltyBankID }

type CreateEarnedTransaction struct {
	CommandMeta
	LoyaltyBankID string
	Points        int64
}

func (c CreateEarnedTransaction) CommandName() string { return "CreateEarnedTransaction" }
func (c CreateEarnedTransaction) TargetID() string    { return c.LoyaltyBankID }

type CreateAwardedTransaction struct {
	CommandMeta
	LoyaltyBankID string
	Points        int64
}

func (c CreateAwardedTransaction) CommandName() string { return "CreateAwardedTransaction" }
func (c CreateAwardedTransaction) TargetID() string    { return c.LoyaltyBankID }

type CreateAuthorizedTransaction struct {
	CommandMeta
	LoyaltyBankID string
	PaymentID     string
	Points        int64
}

func (c CreateAuthorizedTransaction) CommandName() string { return "CreateAuthorizedTransaction" }
func (c CreateAuthorizedTransaction) TargetID() string    { return c.LoyaltyBankID }

type CreateVoidTransaction struct {
	CommandMeta
	LoyaltyBankID string
	PaymentID     string
	Points        int64
}

func (c CreateVoidTransaction) CommandName() string { return "CreateVoidTransaction" }
func (c CreateVoidTransaction) TargetID() string    { return c.LoyaltyBankID }

type CreateCapturedTransaction struct {
	CommandMeta
	LoyaltyBankID string
	PaymentID     string
	Points        int64
}

func (c CreateCapturedTransaction) CommandName() string { return "CreateCapturedTransaction" }
func (c CreateCapturedTransaction) TargetID() string    { return c.LoyaltyBankID }

// ExpirePoints expires the remaining points of one batch.
type ExpirePoints struct {
	CommandMeta
	LoyaltyBankID string
	TransactionID string
	Points        int64
}

func (c ExpirePoints) CommandName() string { return "ExpirePoints" }
func (c ExpirePoints) TargetID() string    { return c.LoyaltyBankID }

type ExpireAllPoints struct {
	CommandMeta
	LoyaltyBankID string
}

func (c ExpireAllPoints) CommandName() string { return "ExpireAllPoints" }
func (c ExpireAllPoints) TargetID() string    { return c.LoyaltyBankID }

type StartLoyaltyBankDeletion struct {
	CommandMeta
	LoyaltyBankID string
}

func (c StartLoyaltyBankDeletion) CommandName() string { return "StartLoyaltyBankDeletion" }
func (c StartLoyaltyBankDeletion) TargetID() string    { return c.LoyaltyBankID }

type DeleteLoyaltyBank struct {
	CommandMeta
	LoyaltyBankID string
}

func (c DeleteLoyaltyBank) CommandName() string { return "DeleteLoyaltyBank" }
func (c DeleteLoyaltyBank) TargetID() string    { return c.LoyaltyBankID }

type RollbackLoyaltyBankCreation struct {
	CommandMeta
	LoyaltyBankID string
}

func (c RollbackLoyaltyBankCreation) CommandName() string { return "RollbackLoyaltyBankCreation" }
func (c RollbackLoyaltyBankCreation) TargetID() string    { return c.LoyaltyBankID }

type StartAccountAndLoyaltyBankCreation struct {
	CommandMeta
	RequestID     string
	AccountID     string
	LoyaltyBankID string
	BusinessID    string
	FirstName     string
	LastName      string
	Email         string
}

func (c StartAccountAndLoyaltyBankCreation) CommandName() string {
	return "StartAccountAndLoyaltyBankCreation"
}
func (c StartAccountAndLoyaltyBankCreation) TargetID() string { return CreationStreamID(c.RequestID) }

type EndAccountAndLoyaltyBankCreation struct {
	CommandMeta
	RequestID string
	Succeeded bool
}

func (c EndAccountAndLoyaltyBankCreation) CommandName() string {
	return "EndAccountAndLoyaltyBankCreation"
}
func (c EndAccountAndLoyaltyBankCreation) TargetID() string { return CreationStreamID(c.RequestID) }
