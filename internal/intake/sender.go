package intake

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/spigell/drive-extractor/internal/drive"
)

type senderFilter struct {
	disabled bool
	reason   string
	senders  map[string]bool
	domains  []string
}

// NewSender creates a filter that only passes messages from allowed
// addresses or domains. Without an allow-list it disables itself.
func NewSender() Filter {
	return &senderFilter{}
}

func (f *senderFilter) Name() string { return "sender" }

func (f *senderFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *senderFilter) IsEnabled() bool { return !f.disabled }

func (f *senderFilter) Validate(cfg *Config) error {
	f.senders = make(map[string]bool)
	f.domains = nil

	for _, s := range cfg.AllowedSenders {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.Contains(s, "@") {
			return fmt.Errorf("allowed sender %q is not an email address", s)
		}
		f.senders[s] = true
	}
	for _, d := range cfg.AllowedDomains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@")
		if d != "" {
			f.domains = append(f.domains, d)
		}
	}

	if len(f.senders) == 0 && len(f.domains) == 0 {
		f.Disable("no allowed senders or domains configured")
	}
	return nil
}

func (f *senderFilter) Apply(msg *drive.Message) Decision {
	addr := senderAddress(msg.Sender)
	if f.senders[addr] {
		return Decision{Pass: true}
	}
	if at := strings.LastIndex(addr, "@"); at != -1 {
		domain := addr[at+1:]
		for _, d := range f.domains {
			if domain == d || strings.HasSuffix(domain, "."+d) {
				return Decision{Pass: true}
			}
		}
	}
	return Decision{Reason: fmt.Sprintf("sender not allowed: %s", msg.Sender)}
}

func (f *senderFilter) Status() Status {
	details := map[string]string{}
	if len(f.senders) > 0 {
		details["senders"] = fmt.Sprint(len(f.senders))
	}
	if len(f.domains) > 0 {
		details["domains"] = strings.Join(f.domains, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// senderAddress extracts the lower-cased address from "Name <addr>" or a bare address.
func senderAddress(sender string) string {
	if a, err := mail.ParseAddress(sender); err == nil {
		return strings.ToLower(a.Address)
	}
	s := strings.ToLower(strings.TrimSpace(sender))
	if i := strings.LastIndex(s, "<"); i != -1 {
		s = strings.TrimSuffix(s[i+1:], ">")
	}
	return strings.TrimSpace(s)
}
