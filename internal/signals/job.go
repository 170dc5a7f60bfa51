package signals

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/trustscope/trustscope/internal/score"
)

var freeMailProviders = map[string]bool{
	"gmail.com": true, "googlemail.com": true, "yahoo.com": true, "hotmail.com": true,
	"outlook.com": true, "live.com": true, "aol.com": true, "icloud.com": true,
	"mail.com": true, "gmx.com": true, "proton.me": true, "protonmail.com": true,
	"yandex.com": true, "zoho.com": true,
}

// SalaryAnalyzer compares an offered salary with the market median
type SalaryAnalyzer struct{}

func (SalaryAnalyzer) Name() string { return score.SignalSalary }

func (SalaryAnalyzer) Collect(ctx context.Context, target Target) (score.SignalValue, error) {
	if target.Salary <= 0 || target.MarketSalary <= 0 {
		return score.SignalValue{}, ErrNoData
	}
	return score.SignalValue{Kind: "salary", NumericValue: score.Number(target.Salary / target.MarketSalary)}, nil
}

// EmailAnalyzer checks where a recruiter's contact address comes from
type EmailAnalyzer struct{}

func (EmailAnalyzer) Name() string { return score.SignalEmailProvenance }

func (EmailAnalyzer) Collect(ctx context.Context, target Target) (score.SignalValue, error) {
	if strings.TrimSpace(target.ContactEmail) == "" {
		return score.SignalValue{}, ErrNoData
	}

	addr, err := mail.ParseAddress(target.ContactEmail)
	if err != nil {
		return score.SignalValue{Kind: "email"}, fmt.Errorf("parse contact email: %w", err)
	}
	domain := strings.ToLower(addr.Address[strings.LastIndex(addr.Address, "@")+1:])

	flags := make([]string, 0)
	if freeMailProviders[domain] {
		flags = append(flags, "free-provider")
	} else if company := strings.ToLower(target.CompanyDomain); company != "" &&
		domain != company && !strings.HasSuffix(domain, "."+company) {
		flags = append(flags, "domain-mismatch")
	}

	return score.SignalValue{Kind: "email", Flags: flags, Detail: domain}, nil
}
