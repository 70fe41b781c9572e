// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package submission stores versioned verification submissions (KYC and payout
methods).

# Versioning

Every submit creates a new row with its own id. For one (author, kind) pair the
row with the highest version is the current submission and alone decides
gating; older rows are kept as the audit trail, rejection reasons included.
A reviewed row is never touched again.

	v1 pending ─▶ rejected      (kept)
	v2 pending ─▶ approved      (current)
*/
package submission

import (
	"strings"
	"time"

	"github.com/taibuivan/plume/internal/platform/validate"
)

// # Enums

// Kind names the verified subject.
type Kind string

const (
	KindKYC           Kind = "kyc"
	KindPaymentMethod Kind = "payment_method"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindKYC || k == KindPaymentMethod
}

// Label is the human name used in messages.
func (k Kind) Label() string {
	if k == KindPaymentMethod {
		return "Payment method"
	}
	return "KYC submission"
}

// Status is the review state of one version.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// # Domain Entities

// KYCFields are the identity documents of a KYC submission.
// Document fields hold blob references, never inline data.
type KYCFields struct {
	CINNumber string `json:"cin_number"`
	DocFront  string `json:"doc_front"`
	DocBack   string `json:"doc_back"`
	Selfie    string `json:"selfie"`
}

// PaymentFields describe a mobile-money payout destination.
type PaymentFields struct {
	PayoutPhone string `json:"payout_phone"`
	HolderName  string `json:"holder_name"`
	ProviderRef string `json:"provider_ref"`
}

// Submission is one version of a verification request.
type Submission struct {
	ID              string         `json:"id"`
	AuthorID        string         `json:"author_id"`
	Kind            Kind           `json:"kind"`
	Version         int            `json:"version"`
	Status          Status         `json:"status"`
	KYC             *KYCFields     `json:"kyc,omitempty"`
	Payment         *PaymentFields `json:"payment,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	ReviewedBy      string         `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	SubmittedAt     time.Time      `json:"submitted_at"`
}

// IsPending reports whether the version still awaits a decision.
func (submission *Submission) IsPending() bool {
	return submission.Status == StatusPending
}

func (submission *Submission) clone() *Submission {
	copied := *submission
	if submission.KYC != nil {
		kyc := *submission.KYC
		copied.KYC = &kyc
	}
	if submission.Payment != nil {
		payment := *submission.Payment
		copied.Payment = &payment
	}
	if submission.ReviewedAt != nil {
		reviewedAt := *submission.ReviewedAt
		copied.ReviewedAt = &reviewedAt
	}
	return &copied
}

// # Field Identifiers

const (
	FieldCINNumber   = "cin_number"
	FieldDocFront    = "doc_front"
	FieldDocBack     = "doc_back"
	FieldSelfie      = "selfie"
	FieldPayoutPhone = "payout_phone"
	FieldHolderName  = "holder_name"
	FieldProviderRef = "provider_ref"
	FieldDecision    = "decision"
	FieldReason      = "reason"
)

// # Field Rules

// ValidateKYC checks that the CIN is present and well formed and that all three documents are given.
func ValidateKYC(validator *validate.Validator, fields KYCFields) {
	validator.Required(FieldCINNumber, fields.CINNumber).
		CIN(FieldCINNumber, fields.CINNumber).
		Required(FieldDocFront, fields.DocFront).
		Required(FieldDocBack, fields.DocBack).
		Required(FieldSelfie, fields.Selfie)
}

// ValidatePayment checks the payout destination.
func ValidatePayment(validator *validate.Validator, fields PaymentFields) {
	phone := strings.TrimSpace(fields.PayoutPhone)
	validator.Required(FieldPayoutPhone, phone).
		Custom(FieldPayoutPhone, phone != "" && !isPhone(phone), "Must be a valid phone number").
		Required(FieldHolderName, fields.HolderName).
		MaxLen(FieldHolderName, fields.HolderName, 120).
		Required(FieldProviderRef, fields.ProviderRef).
		MaxLen(FieldProviderRef, fields.ProviderRef, 64)
}

// isPhone accepts an optional leading '+' followed by 8 to 15 digits.
func isPhone(value string) bool {
	digits := strings.TrimPrefix(value, "+")
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
