// Package validate holds the input checks shared by handlers and services.
package validate

import (
	"regexp"
	"strings"
	"time"

	"melodist/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// youtubeURL is deliberately permissive: the scheme and www prefix are optional.
var youtubeURL = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

func YouTubeURL(s string) bool {
	return youtubeURL.MatchString(strings.TrimSpace(s))
}

// RegisterBindings adds the custom tags used in request structs to gin's validator.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("youtube_url", func(fl validator.FieldLevel) bool {
		return YouTubeURL(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("release_type", func(fl validator.FieldLevel) bool {
		return ReleaseType(fl.Field().String())
	})
}

func ReleaseType(s string) bool {
	for _, t := range domain.ReleaseTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ReleaseDate parses a YYYY-MM-DD date. Empty input yields nil.
func ReleaseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, domain.Invalid("release_date", "must be YYYY-MM-DD")
	}
	return &t, nil
}

// Payout describes the destination of a withdrawal.
type Payout struct {
	Method            string
	UPIID             string
	AccountHolderName string
	AccountNumber     string
	IFSCCode          string
	BankName          string
}

var ifsc = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// Withdrawal checks amount and payout details. It does not look at the wallet.
func Withdrawal(amount decimal.Decimal, p Payout) error {
	if !amount.IsPositive() {
		return domain.Invalid("amount", "must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.Invalid("amount", "at most two decimal places")
	}
	hasUPI := strings.TrimSpace(p.UPIID) != ""
	hasBank := strings.TrimSpace(p.AccountNumber) != "" || strings.TrimSpace(p.IFSCCode) != "" ||
		strings.TrimSpace(p.AccountHolderName) != "" || strings.TrimSpace(p.BankName) != ""
	switch p.Method {
	case domain.PayoutMethodUPI:
		if !hasUPI {
			return domain.Invalid("upi_id", "is required for UPI payouts")
		}
		if hasBank {
			return domain.Invalid("payout_method", "provide either UPI or bank details, not both")
		}
		if !strings.Contains(p.UPIID, "@") {
			return domain.Invalid("upi_id", "must look like name@bank")
		}
	case domain.PayoutMethodBank:
		if hasUPI {
			return domain.Invalid("payout_method", "provide either UPI or bank details, not both")
		}
		for field, v := range map[string]string{
			"account_holder_name": p.AccountHolderName,
			"account_number":      p.AccountNumber,
			"ifsc_code":           p.IFSCCode,
			"bank_name":           p.BankName,
		} {
			if strings.TrimSpace(v) == "" {
				return domain.Invalid(field, "is required for bank payouts")
			}
		}
		if !ifsc.MatchString(strings.ToUpper(strings.TrimSpace(p.IFSCCode))) {
			return domain.Invalid("ifsc_code", "is not a valid IFSC code")
		}
	default:
		return domain.Invalid("payout_method", "must be upi or bank")
	}
	return nil
}

// Note trims an admin note; rejection needs a non-empty one.
func Note(to domain.Status, note string) (string, error) {
	note = strings.TrimSpace(note)
	if domain.RequiresNote(to) && note == "" {
		return "", domain.ErrNoteRequired
	}
	return note, nil
}
