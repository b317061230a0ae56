package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	pathGetProfile            = "/getProfile"
	pathGetWalletBalance      = "/order/getWalletBalance"
	pathGetWalletTransactions = "/order/getWalletTransactions"
)

// Account covers the signed-in user's profile and wallet.
type Account struct {
	client *api.Client
	unit   currency.Unit
}

func NewAccount(client *api.Client, unit currency.Unit) *Account {
	return &Account{client: client, unit: unit}
}

type profileDTO struct {
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
	MobileNo    string `json:"mobileNo"`
	EmailID     string `json:"emailId"`
	Email       string `json:"email"`
}

// walletBalanceDTO lists every place the balance has been seen in a response.
type walletBalanceDTO struct {
	Balance      decimal.NullDecimal `json:"balance"`
	WalletAmount decimal.NullDecimal `json:"walletAmount"`
	Amount       decimal.NullDecimal `json:"amount"`
	Data         *struct {
		WalletBalance decimal.NullDecimal `json:"walletBalance"`
	} `json:"data"`
}

type walletTransactionDTO struct {
	ID          json.RawMessage `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   json.RawMessage `json:"reference"`
	Description string          `json:"description"`
	CreatedAt   unixTime        `json:"createdAt"`
}

type walletTransactionsDTO struct {
	Transactions []walletTransactionDTO `json:"transactions"`
	Data         *struct {
		Transactions []walletTransactionDTO `json:"transactions"`
	} `json:"data"`
}

func (s *Account) Profile(ctx context.Context) (domain.Profile, error) {
	var dto profileDTO
	if err := s.client.Get(ctx, pathGetProfile, nil, &dto); err != nil {
		return domain.Profile{}, fmt.Errorf("client.Get[%s]: %w", pathGetProfile, err)
	}
	return domain.Profile{
		Name:        dto.Name,
		Gender:      dto.Gender,
		DateOfBirth: dto.DateOfBirth,
		MobileNo:    dto.MobileNo,
		Email:       firstNonEmpty(dto.EmailID, dto.Email),
	}, nil
}

// WalletBalance returns zero when the response carries no balance field.
func (s *Account) WalletBalance(ctx context.Context) (domain.WalletBalance, error) {
	resp, err := s.client.Do(ctx, http.MethodGet, pathGetWalletBalance, nil, nil, "")
	if err != nil {
		return domain.WalletBalance{}, fmt.Errorf("client.Do[%s]: %w", pathGetWalletBalance, err)
	}

	var dto walletBalanceDTO
	if len(resp.Raw) > 0 {
		if err := json.Unmarshal(resp.Raw, &dto); err != nil {
			return domain.WalletBalance{}, fmt.Errorf("json.Unmarshal: %w", err)
		}
	}

	amount := decimal.Zero
	candidates := []decimal.NullDecimal{dto.Balance, dto.WalletAmount, dto.Amount}
	if dto.Data != nil {
		candidates = append([]decimal.NullDecimal{dto.Data.WalletBalance}, candidates...)
	}
	for _, c := range candidates {
		if c.Valid {
			amount = c.Decimal
			break
		}
	}

	return domain.WalletBalance{Balance: domain.NewMoney(amount, s.unit)}, nil
}

func (s *Account) WalletTransactions(ctx context.Context) ([]domain.WalletTransaction, error) {
	resp, err := s.client.Do(ctx, http.MethodGet, pathGetWalletTransactions, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("client.Do[%s]: %w", pathGetWalletTransactions, err)
	}

	var dto walletTransactionsDTO
	if len(resp.Raw) > 0 {
		if err := json.Unmarshal(resp.Raw, &dto); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
	}

	rows := dto.Transactions
	if dto.Data != nil && len(dto.Data.Transactions) > 0 {
		rows = dto.Data.Transactions
	}

	txs := make([]domain.WalletTransaction, 0, len(rows))
	for _, row := range rows {
		kind := row.Type
		if kind == "" {
			kind = "credit"
		}
		id := rawScalar(row.ID)
		txs = append(txs, domain.WalletTransaction{
			ID:          id,
			Type:        kind,
			Amount:      domain.NewMoney(row.Amount, s.unit),
			Reference:   firstNonEmpty(rawScalar(row.Reference), id),
			Description: row.Description,
			Date:        time.Time(row.CreatedAt),
		})
	}
	return txs, nil
}
