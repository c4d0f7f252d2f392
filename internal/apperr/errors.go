// Package apperr defines the error taxonomy shared by every service:
// missing entries, authorization failures, and business-rule violations.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Entity kinds referenced by NotFoundError. These match the record store kinds.
const (
	KindTrader       = "trader"
	KindTradableItem = "tradableItem"
	KindTrade        = "trade"
)

// NotFoundError reports that a referenced id does not exist in the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// TraderNotFound reports a missing trader record.
func TraderNotFound(id string) error {
	return &NotFoundError{Kind: KindTrader, ID: id}
}

// ItemNotFound reports a missing tradable item record.
func ItemNotFound(id string) error {
	return &NotFoundError{Kind: KindTradableItem, ID: id}
}

// TradeNotFound reports a missing trade record.
func TradeNotFound(id string) error {
	return &NotFoundError{Kind: KindTrade, ID: id}
}

// AuthorizationError reports an action the caller is not allowed to take,
// such as acting on a trade they are not a party to or mutating a frozen
// account.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// Unauthorized builds an AuthorizationError.
func Unauthorized(reason string) error {
	return &AuthorizationError{Reason: reason}
}

// CannotTradeError reports a well-formed request that violates a trading
// rule: limits, dates, ownership, edit turn, or edit cap.
type CannotTradeError struct {
	Reason string
}

func (e *CannotTradeError) Error() string { return e.Reason }

// CannotTrade builds a CannotTradeError.
func CannotTrade(reason string) error {
	return &CannotTradeError{Reason: reason}
}

// ConflictError reports a uniqueness violation, e.g. a taken username.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Conflict builds a ConflictError.
func Conflict(reason string) error {
	return &ConflictError{Reason: reason}
}

// RateLimitError reports a caller exceeding the request rate.
type RateLimitError struct{}

func (e *RateLimitError) Error() string { return "rate limit exceeded" }

// RateLimited builds a RateLimitError.
func RateLimited() error {
	return &RateLimitError{}
}

// PasswordError reports a password that fails the account policy.
type PasswordError struct {
	Reason string
}

func (e *PasswordError) Error() string { return e.Reason }

// BadPassword builds a PasswordError.
func BadPassword(reason string) error {
	return &PasswordError{Reason: reason}
}

// IsNotFound reports whether err is a NotFoundError of any kind.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsNotFoundKind reports whether err is a NotFoundError for the given kind.
func IsNotFoundKind(err error, kind string) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && nf.Kind == kind
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// IsCannotTrade reports whether err is a CannotTradeError.
func IsCannotTrade(err error) bool {
	var ct *CannotTradeError
	return errors.As(err, &ct)
}

// HTTPStatus maps an error to the response status the HTTP handlers use.
func HTTPStatus(err error) int {
	var (
		nf *NotFoundError
		ae *AuthorizationError
		ct *CannotTradeError
		ce *ConflictError
		pe *PasswordError
		rl *RateLimitError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ae):
		return http.StatusForbidden
	case errors.As(err, &ct):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
