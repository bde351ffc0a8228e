package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/iliyamo/swasthya/internal/logging"
)

// Purposes an OTP can be requested for.
const (
	PurposeSignup = "signup"
	PurposeReset  = "reset"
)

// ErrInvalidOTP is returned when a submitted code does not match.
var ErrInvalidOTP = errors.New("invalid OTP")

// OTPService delivers and checks one-time codes sent to a phone.
type OTPService interface {
	Send(ctx context.Context, phone, purpose string) error
	Verify(phone, code string) error
}

// DemoOTP accepts a single fixed code for every phone.  Send only logs;
// there is no SMS gateway behind it.
type DemoOTP struct {
	code string
	log  logging.Logger
}

func NewDemoOTP(code string, log logging.Logger) *DemoOTP {
	if log == nil {
		log = logging.Discard()
	}
	return &DemoOTP{code: code, log: log}
}

func (d *DemoOTP) Send(_ context.Context, phone, purpose string) error {
	d.log.WithFields(logging.Fields{
		"phone":   maskPhone(phone),
		"purpose": purpose,
	}).Info("otp: demo code issued")
	return nil
}

func (d *DemoOTP) Verify(_ string, code string) error {
	if d.code == "" || subtle.ConstantTimeCompare([]byte(code), []byte(d.code)) != 1 {
		return ErrInvalidOTP
	}
	return nil
}

// maskPhone keeps the last four digits.
func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return "******" + p[len(p)-4:]
}
