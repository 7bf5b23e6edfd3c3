package cli

import (
	"github.com/spf13/pflag"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/service"
)

// formatFlag validates --format while flags are parsed.
type formatFlag struct {
	value domain.OutputFormat
}

var _ pflag.Value = (*formatFlag)(nil)

func (f *formatFlag) String() string {
	if f.value == "" {
		return string(domain.FormatDetailed)
	}
	return string(f.value)
}

func (f *formatFlag) Set(s string) error {
	v, err := domain.ParseOutputFormat(s)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (f *formatFlag) Type() string { return "format" }

// policyFlag validates --unverified while flags are parsed.
type policyFlag struct {
	value service.UnverifiedPolicy
}

var _ pflag.Value = (*policyFlag)(nil)

func (p *policyFlag) String() string {
	if p.value == "" {
		return string(service.PolicyDiscover)
	}
	return string(p.value)
}

func (p *policyFlag) Set(s string) error {
	v, err := service.ParseUnverifiedPolicy(s)
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

func (p *policyFlag) Type() string { return "policy" }
